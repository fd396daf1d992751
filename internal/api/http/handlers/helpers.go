package handlers

import (
	"errors"
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/itsmenoahpoli/brgykonek-backend/internal/auth"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/service"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/storage"
	apperrors "github.com/itsmenoahpoli/brgykonek-backend/pkg/util"
)

// actorFrom returns the authenticated caller, or an Unauthorized error.
func actorFrom(c *fiber.Ctx) (service.Actor, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return service.Actor{}, apperrors.NewUnauthorized("authentication required")
	}
	return service.ActorFromUser(principal.User), nil
}

func parseBody(c *fiber.Ctx, dest any) error {
	if err := c.BodyParser(dest); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm)
}

// queryPtr returns nil for an absent or blank query parameter.
func queryPtr(c *fiber.Ctx, key string) *string {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return nil
	}
	return &v
}

func parsePage(c *fiber.Ctx) (limit, offset int) {
	limit, _ = strconv.Atoi(c.Query("limit"))
	offset, _ = strconv.Atoi(c.Query("offset"))
	return limit, offset
}

func parseTime(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}
	return nil, errors.New("must be RFC3339 or YYYY-MM-DD")
}

// openedFiles holds multipart files open for the duration of a request.
type openedFiles []multipart.File

func (o openedFiles) Close() {
	for _, f := range o {
		_ = f.Close()
	}
}

// formUploads opens every file sent under field. A missing field yields no uploads.
func formUploads(c *fiber.Ctx, field string) ([]storage.Upload, openedFiles, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil, apperrors.NewValidationError("invalid multipart form", nil)
	}
	headers := form.File[field]
	uploads := make([]storage.Upload, 0, len(headers))
	opened := make(openedFiles, 0, len(headers))
	for _, fh := range headers {
		upload, file, err := openUpload(fh)
		if err != nil {
			opened.Close()
			return nil, nil, err
		}
		uploads = append(uploads, upload)
		opened = append(opened, file)
	}
	return uploads, opened, nil
}

// formUpload opens the single file sent under field, if any.
func formUpload(c *fiber.Ctx, field string) (*storage.Upload, openedFiles, error) {
	uploads, opened, err := formUploads(c, field)
	if err != nil || len(uploads) == 0 {
		return nil, opened, err
	}
	return &uploads[0], opened, nil
}

func openUpload(fh *multipart.FileHeader) (storage.Upload, multipart.File, error) {
	file, err := fh.Open()
	if err != nil {
		return storage.Upload{}, nil, apperrors.NewValidationError("unreadable upload", map[string]any{"file": fh.Filename})
	}
	return storage.Upload{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Size:        fh.Size,
		Body:        file,
	}, file, nil
}
