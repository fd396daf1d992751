// Package seed fills a development database with demo accounts, sitios,
// permission requests, complaints and announcements.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"go.uber.org/zap"

	"github.com/itsmenoahpoli/brgykonek-backend/internal/auth"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/domain"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/repository"
	apperrors "github.com/itsmenoahpoli/brgykonek-backend/pkg/util"
)

// DefaultPassword is assigned to every seeded account.
const DefaultPassword = "password123"

var (
	sitioNames = []string{"Sitio Uno", "Sitio Dos", "Sitio Tres", "Sitio Kwatro", "Sitio Singko"}

	complaintCategories = []string{"noise", "garbage", "drainage", "road damage", "stray animals", "street lights"}

	riskCategories = []domain.RiskCategory{domain.RiskLow, domain.RiskMedium, domain.RiskHigh, domain.RiskCritical}

	reviewStatuses = []domain.PermissionRequestStatus{
		domain.PermissionRequestPending,
		domain.PermissionRequestApproved,
		domain.PermissionRequestRejected,
	}
)

// Options controls how much data is generated.
type Options struct {
	Residents int
	// Seed makes runs reproducible; zero picks a random seed.
	Seed       int64
	BcryptCost int
}

// Repositories are the stores the seeder writes to.
type Repositories struct {
	Users              repository.UserRepository
	PermissionRequests repository.PermissionRequestRepository
	Complaints         repository.ComplaintRepository
	Sitios             repository.SitioRepository
	Announcements      repository.AnnouncementRepository
}

// Summary counts what a run created.
type Summary struct {
	Sitios             int
	Users              int
	PermissionRequests int
	Complaints         int
	Announcements      int
}

// Seeder generates demo data.
type Seeder struct {
	repos  Repositories
	opts   Options
	faker  *gofakeit.Faker
	logger *zap.Logger
	now    func() time.Time
}

// NewSeeder builds a seeder.
func NewSeeder(repos Repositories, opts Options, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Residents <= 0 {
		opts.Residents = 5
	}
	return &Seeder{
		repos:  repos,
		opts:   opts,
		faker:  gofakeit.New(opts.Seed),
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Run seeds everything. Accounts and sitios that already exist are reused,
// so running twice does not fail.
func (s *Seeder) Run(ctx context.Context) (Summary, error) {
	var summary Summary

	sitios, created, err := s.seedSitios(ctx)
	if err != nil {
		return summary, fmt.Errorf("seed sitios: %w", err)
	}
	summary.Sitios = created

	admin, err := s.ensureUser(ctx, &summary, domain.User{
		Name:  "Barangay Captain",
		Email: "admin@brgykonek.local",
		Role:  domain.RoleAdmin,
	})
	if err != nil {
		return summary, fmt.Errorf("seed admin: %w", err)
	}
	if _, err := s.ensureUser(ctx, &summary, domain.User{
		Name:  "Barangay Secretary",
		Email: "staff@brgykonek.local",
		Role:  domain.RoleStaff,
	}); err != nil {
		return summary, fmt.Errorf("seed staff: %w", err)
	}

	residents := make([]*domain.User, 0, s.opts.Residents)
	for i := 0; i < s.opts.Residents; i++ {
		resident, err := s.ensureUser(ctx, &summary, s.fakeResident(i, sitios))
		if err != nil {
			return summary, fmt.Errorf("seed resident: %w", err)
		}
		residents = append(residents, resident)
	}

	for _, resident := range residents {
		n, err := s.seedPermissionRequests(ctx, resident, admin)
		if err != nil {
			return summary, fmt.Errorf("seed permission requests: %w", err)
		}
		summary.PermissionRequests += n

		if err := s.seedComplaint(ctx, resident, sitios); err != nil {
			return summary, fmt.Errorf("seed complaint: %w", err)
		}
		summary.Complaints++
	}

	n, err := s.seedAnnouncements(ctx, admin, sitios)
	if err != nil {
		return summary, fmt.Errorf("seed announcements: %w", err)
	}
	summary.Announcements = n

	s.logger.Info("seed complete",
		zap.Int("sitios", summary.Sitios),
		zap.Int("users", summary.Users),
		zap.Int("permission_requests", summary.PermissionRequests),
		zap.Int("complaints", summary.Complaints),
		zap.Int("announcements", summary.Announcements))
	return summary, nil
}

func (s *Seeder) seedSitios(ctx context.Context) ([]domain.Sitio, int, error) {
	created := 0
	for _, name := range sitioNames {
		err := s.repos.Sitios.Create(ctx, &domain.Sitio{Name: name})
		switch {
		case err == nil:
			created++
		case apperrors.IsUniqueViolation(err):
		default:
			return nil, created, err
		}
	}
	sitios, err := s.repos.Sitios.List(ctx)
	return sitios, created, err
}

func (s *Seeder) ensureUser(ctx context.Context, summary *Summary, user domain.User) (*domain.User, error) {
	existing, err := s.repos.Users.GetByEmail(ctx, user.Email)
	if err == nil {
		return existing, nil
	}
	if !apperrors.IsNotFound(err) {
		return nil, err
	}

	hash, err := auth.HashPassword(DefaultPassword, s.opts.BcryptCost)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash
	if err := s.repos.Users.Create(ctx, &user); err != nil {
		return nil, err
	}
	summary.Users++
	return &user, nil
}

func (s *Seeder) fakeResident(i int, sitios []domain.Sitio) domain.User {
	first, last := s.faker.FirstName(), s.faker.LastName()
	sitio := ""
	if len(sitios) > 0 {
		sitio = sitios[s.faker.Number(0, len(sitios)-1)].Name
	}
	return domain.User{
		Name:                first + " " + last,
		Email:               fmt.Sprintf("%s.%s%d@residents.brgykonek.local", strings.ToLower(first), strings.ToLower(last), i),
		Role:                domain.RoleResident,
		MobileNumber:        s.mobileNumber(),
		Address:             s.faker.Street(),
		AddressSitio:        sitio,
		AddressBarangay:     "Barangay Konek",
		AddressMunicipality: s.faker.City(),
		AddressProvince:     "Cavite",
	}
}

func (s *Seeder) mobileNumber() string {
	return fmt.Sprintf("09%09d", s.faker.Number(0, 999999999))
}

// seedPermissionRequests files a name, address and mobile change for
// resident. Decided ones carry the admin's review stamp.
func (s *Seeder) seedPermissionRequests(ctx context.Context, resident, admin *domain.User) (int, error) {
	samples := []struct {
		current, change map[string]any
		reason          string
		status          domain.PermissionRequestStatus
	}{
		{
			current: map[string]any{domain.FieldName: resident.Name},
			change:  map[string]any{domain.FieldName: resident.Name + " Updated"},
			reason:  "I need to update my name due to marriage.",
			status:  s.randomStatus(),
		},
		{
			current: map[string]any{
				domain.FieldAddress:         resident.Address,
				domain.FieldAddressSitio:    resident.AddressSitio,
				domain.FieldAddressBarangay: resident.AddressBarangay,
			},
			change: map[string]any{
				domain.FieldAddress:         s.faker.Street(),
				domain.FieldAddressSitio:    sitioNames[s.faker.Number(0, len(sitioNames)-1)],
				domain.FieldAddressBarangay: resident.AddressBarangay,
			},
			reason: "I moved to a new address and need to update my profile.",
			status: s.randomStatus(),
		},
		{
			current: map[string]any{domain.FieldMobileNumber: resident.MobileNumber},
			change:  map[string]any{domain.FieldMobileNumber: s.mobileNumber()},
			reason:  "I changed my mobile number and need to update it.",
			status:  domain.PermissionRequestPending,
		},
	}

	for _, sample := range samples {
		req := &domain.PermissionRequest{
			UserID:             resident.ID,
			Status:             domain.PermissionRequestPending,
			CurrentValue:       sample.current,
			RequestChangeValue: sample.change,
			Reason:             sample.reason,
		}
		if err := s.repos.PermissionRequests.Create(ctx, req); err != nil {
			return 0, err
		}
		if sample.status == domain.PermissionRequestPending {
			continue
		}
		notes := ""
		if sample.status == domain.PermissionRequestRejected {
			notes = "Please provide additional documentation."
		}
		if err := req.Review(sample.status, admin.ID, notes, s.now()); err != nil {
			return 0, err
		}
		if err := s.repos.PermissionRequests.UpdateReview(ctx, req); err != nil {
			return 0, err
		}
	}
	return len(samples), nil
}

func (s *Seeder) randomStatus() domain.PermissionRequestStatus {
	return reviewStatuses[s.faker.Number(0, len(reviewStatuses)-1)]
}

func (s *Seeder) seedComplaint(ctx context.Context, resident *domain.User, sitios []domain.Sitio) error {
	risk := riskCategories[s.faker.Number(0, len(riskCategories)-1)]
	reported := s.faker.DateRange(s.now().AddDate(0, -2, 0), s.now())
	complaint := &domain.Complaint{
		ResidentID:           resident.ID,
		Title:                strings.TrimSuffix(s.faker.Sentence(5), "."),
		Category:             complaintCategories[s.faker.Number(0, len(complaintCategories)-1)],
		Content:              s.faker.Paragraph(1, 3, 12, " "),
		LocationOfIncident:   s.faker.Street(),
		DateOfReport:         &reported,
		Priority:             risk.Priority(),
		PriorityRiskCategory: risk,
		Status:               domain.ComplaintStatusPending,
	}
	if id := domain.SitioIDByName(sitios, resident.AddressSitio); id != "" {
		complaint.SitioID = &id
	}
	return s.repos.Complaints.Create(ctx, complaint)
}

func (s *Seeder) seedAnnouncements(ctx context.Context, admin *domain.User, sitios []domain.Sitio) (int, error) {
	published := s.now()
	list := []domain.Announcement{
		{
			Title:    "Barangay General Assembly",
			Content:  s.faker.Paragraph(1, 3, 12, " "),
			Audience: domain.AudienceAllResidents,
			Status:   domain.AnnouncementPublished,
		},
		{
			Title:    "Staff Coordination Meeting",
			Content:  s.faker.Paragraph(1, 2, 10, " "),
			Audience: domain.AudienceStaffOnly,
			Status:   domain.AnnouncementPublished,
		},
		{
			Title:    "Clean-up Drive Schedule",
			Content:  s.faker.Paragraph(1, 2, 10, " "),
			Audience: domain.AudienceAllResidents,
			Status:   domain.AnnouncementDraft,
		},
	}
	if len(sitios) > 0 {
		list = append(list, domain.Announcement{
			Title:          "Scheduled Water Interruption in " + sitios[0].Name,
			Content:        s.faker.Paragraph(1, 2, 10, " "),
			Audience:       domain.AudienceSpecificZone,
			SelectedSitios: []string{sitios[0].ID},
			Status:         domain.AnnouncementPublished,
		})
	}

	for i := range list {
		a := &list[i]
		a.CreatedBy = admin.ID
		if a.Status == domain.AnnouncementPublished {
			a.PublishedAt = &published
		}
		if err := s.repos.Announcements.Create(ctx, a); err != nil {
			return i, err
		}
	}
	return len(list), nil
}
