package composer

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"culturecompass/internal/apierr"
	"culturecompass/internal/auth"
	"culturecompass/internal/route"
)

// Uploader turns an uploaded image into a display URL.
type Uploader interface {
	Store(ctx context.Context, userID string, data []byte, mime string) (string, error)
}

type Handler struct {
	routes   *route.Service
	uploader Uploader
	log      *zap.SugaredLogger
}

func NewHandler(routes *route.Service, uploader Uploader, log *zap.SugaredLogger) *Handler {
	return &Handler{routes: routes, uploader: uploader, log: log}
}

// payload is the composer request body. Nil fields are not supplied.
type payload struct {
	Mode             Mode          `json:"mode" form:"mode"`
	Title            *string       `json:"title" form:"title"`
	Description      *string       `json:"description" form:"description"`
	GoogleMapsLink   *string       `json:"googleMapsLink" form:"googleMapsLink"`
	IsCulturalRoute  *bool         `json:"isCulturalRoute" form:"isCulturalRoute"`
	RemoveImage      bool          `json:"removeImage" form:"removeImage"`
	StartPointCoords *route.Coords `json:"startPointCoords" form:"-"`
	IfUpdatedAt      *time.Time    `json:"ifUpdatedAt" form:"-"`
	EditID           string        `json:"editId" form:"editId"`
}

func (p payload) apply(f *Form) {
	if p.Title != nil {
		f.SetTitle(*p.Title)
	}
	if p.Description != nil {
		f.SetDescription(*p.Description)
	}
	if p.GoogleMapsLink != nil {
		f.SetLink(*p.GoogleMapsLink)
	}
	if p.IsCulturalRoute != nil {
		f.SetCultural(*p.IsCulturalRoute)
	}
	if p.RemoveImage {
		f.RemoveImage()
	}
	if p.StartPointCoords != nil {
		f.SetStartPoint(*p.StartPointCoords)
	}
}

func RegisterRoutes(r fiber.Router, h *Handler, authMiddleware fiber.Handler) {
	r.Post("/routes", authMiddleware, h.create)
	r.Put("/routes/:id", authMiddleware, h.update)
	r.Delete("/routes/:id", authMiddleware, h.delete)
	r.Post("/composer/preview", authMiddleware, h.preview)
	r.Get("/composer/edit/:id", authMiddleware, h.loadEdit)
	r.Post("/composer/cancel", h.cancel)
}

func (h *Handler) create(c *fiber.Ctx) error {
	var p payload
	if err := c.BodyParser(&p); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	who := auth.IdentityFrom(c)

	f := NewForm()
	if p.Mode != ModeShare && p.Mode != ModeNew {
		return fiber.NewError(fiber.StatusBadRequest, "mode must be share or new")
	}
	if err := f.Choose(p.Mode); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	p.apply(f)
	if err := h.attachUpload(c, f, who); err != nil {
		return err
	}

	out, err := f.Submit(c.Context(), h.routes, who, nil)
	if err != nil {
		return h.httpError(err)
	}
	h.log.Infow("route created", "route_id", out.Route.ID, "creator_id", who.ID, "share", out.Route.ShareLike())
	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *Handler) update(c *fiber.Ctx) error {
	var p payload
	if err := c.BodyParser(&p); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	who := auth.IdentityFrom(c)

	f := NewForm()
	if err := f.LoadForEdit(c.Context(), h.routes, c.Params("id"), who.ID); err != nil {
		return h.editError(err)
	}
	p.apply(f)
	if err := h.attachUpload(c, f, who); err != nil {
		return err
	}

	out, err := f.Submit(c.Context(), h.routes, who, p.IfUpdatedAt)
	if err != nil {
		return h.httpError(err)
	}
	h.log.Infow("route updated", "route_id", out.Route.ID, "creator_id", who.ID)
	return c.JSON(out)
}

func (h *Handler) delete(c *fiber.Ctx) error {
	who := auth.IdentityFrom(c)
	if err := h.routes.Delete(c.Context(), c.Params("id"), who); err != nil {
		return h.httpError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// preview evaluates a draft without writing it.
func (h *Handler) preview(c *fiber.Ctx) error {
	var p payload
	if err := c.BodyParser(&p); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	who := auth.IdentityFrom(c)

	f := NewForm()
	if p.EditID != "" {
		if err := f.LoadForEdit(c.Context(), h.routes, p.EditID, who.ID); err != nil {
			return h.editError(err)
		}
	} else if err := f.Choose(p.Mode); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	p.apply(f)

	resp := fiber.Map{
		"mode":      f.Mode(),
		"shareLike": f.ShareLike(),
		"image":     f.Preview(),
		"warning":   f.Warning(),
	}
	if err := f.Validate(who.ID != ""); err != nil {
		resp["failure"] = err
	}
	return c.JSON(resp)
}

func (h *Handler) loadEdit(c *fiber.Ctx) error {
	who := auth.IdentityFrom(c)
	f := NewForm()
	if err := f.LoadForEdit(c.Context(), h.routes, c.Params("id"), who.ID); err != nil {
		return h.editError(err)
	}
	r, _ := f.Editing()
	return c.JSON(fiber.Map{
		"mode":        f.Mode(),
		"draft":       f.Draft(),
		"shareLike":   f.ShareLike(),
		"image":       f.Preview(),
		"ifUpdatedAt": r.UpdatedAt,
	})
}

func (h *Handler) cancel(c *fiber.Ctx) error {
	var p payload
	_ = c.BodyParser(&p)
	f := NewForm()
	switch p.Mode {
	case ModeShare, ModeNew:
		_ = f.Choose(p.Mode)
	case ModeEdit:
		f.mode = ModeEdit
	}
	return c.JSON(fiber.Map{"redirect": f.Cancel()})
}

// attachUpload reads an optional multipart "image" file into the form.
// The file is only handed to the uploader once the form passes validation.
func (h *Handler) attachUpload(c *fiber.Ctx, f *Form, who route.Identity) error {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return nil
	}
	fh, err := c.FormFile("image")
	if err != nil {
		return nil
	}
	data, mime, err := ReadImage(fh)
	if err != nil {
		return h.httpError(err)
	}
	if err := f.Validate(who.ID != ""); err != nil {
		return h.httpError(err)
	}
	if h.uploader == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "image uploads are not configured")
	}
	url, err := h.uploader.Store(c.Context(), who.ID, data, mime)
	if err != nil {
		h.log.Errorw("image upload failed", "user_id", who.ID, "error", err)
		return apierr.New(fiber.StatusBadGateway, "upload_failed", "Could not upload image. Please try again.")
	}
	return h.httpError(f.AttachImage(int64(len(data)), url))
}

// ReadImage checks an uploaded file against the size limit and sniffs its type.
func ReadImage(fh *multipart.FileHeader) ([]byte, string, error) {
	if fh.Size > MaxUploadBytes {
		return nil, "", ErrImageTooLarge
	}
	file, err := fh.Open()
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxUploadBytes+1))
	if err != nil {
		return nil, "", err
	}
	if len(data) > MaxUploadBytes {
		return nil, "", ErrImageTooLarge
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return nil, "", ErrNotImage
	}
	return data, mime, nil
}

func (h *Handler) editError(err error) error {
	switch err {
	case ErrNotOwner:
		return &apierr.Error{Status: fiber.StatusForbidden, Code: "not_owner", Message: err.Error(), Redirect: PathMyPage}
	default:
		return h.httpError(err)
	}
}

func (h *Handler) httpError(err error) error {
	if err == nil {
		return nil
	}
	if f, ok := err.(*Failure); ok {
		status := fiber.StatusUnprocessableEntity
		redirect := ""
		if f.Code == CodeAuthRequired {
			status = fiber.StatusUnauthorized
			redirect = PathSignIn
		}
		return &apierr.Error{Status: status, Code: string(f.Code), Field: f.Field, Message: f.Message, Redirect: redirect}
	}
	switch err {
	case ErrImageTooLarge, ErrNotImage:
		return apierr.New(fiber.StatusUnprocessableEntity, "invalid_image", err.Error())
	case ErrInvalidTransition:
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return apierr.FromDomain(err)
}
