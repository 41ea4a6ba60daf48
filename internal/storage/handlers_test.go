package storage

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"culturecompass/internal/apierr"
	"culturecompass/internal/composer"
)

func uploadRequest(t *testing.T, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", "photo.png")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	_, _ = fw.Write(data)
	_ = mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/storage/images", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func newStorageApp(svc *Service) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: apierr.Handler(zap.NewNop().Sugar()),
		BodyLimit:    8 << 20,
	})
	RegisterRoutes(app.Group("/storage"), svc, func(c *fiber.Ctx) error { return c.Next() }, zap.NewNop().Sugar())
	return app
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n0000000000")

func TestStorageUploadHandler(t *testing.T) {
	app := newStorageApp(NewService(nil, &fakeHost{}))
	resp, err := app.Test(uploadRequest(t, pngBytes))
	if err != nil || resp.StatusCode != http.StatusCreated {
		t.Fatalf("upload status: %v", err)
	}
}

func TestStorageUploadRejectsLargeAndNonImage(t *testing.T) {
	app := newStorageApp(NewService(nil, nil))

	big := append(append([]byte{}, pngBytes...), make([]byte, composer.MaxUploadBytes)...)
	resp, err := app.Test(uploadRequest(t, big), -1)
	if err != nil || resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected oversized rejection: %v", err)
	}

	resp, err = app.Test(uploadRequest(t, []byte("plain text")))
	if err != nil || resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected non-image rejection: %v", err)
	}
}

func TestStorageUploadMissingFile(t *testing.T) {
	app := newStorageApp(NewService(nil, nil))
	req := httptest.NewRequest(http.MethodPost, "/storage/images", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request")
	}
}

func TestStorageUploadHostError(t *testing.T) {
	app := newStorageApp(NewService(nil, &fakeHost{err: errSave}))
	resp, err := app.Test(uploadRequest(t, pngBytes))
	if err != nil || resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected bad gateway")
	}
}
