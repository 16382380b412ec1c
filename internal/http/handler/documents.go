package handler

import (
	"github.com/gofiber/fiber/v2"

	"printdesk/internal/http/middleware"
	"printdesk/internal/service"
)

type renameRequest struct {
	Name string `json:"name"`
}

// ListDocuments returns the caller's documents and remaining quota.
//
// @Summary   List documents
// @Tags      documents
// @Security  BearerAuth
// @Produce   json
// @Param     limit  query int false "page size" default(10)
// @Param     offset query int false "offset"    default(0)
// @Success   200 {object} service.DocumentListResult
// @Failure   400 {object} errorPayload
// @Router    /api/v1/documents [get]
func ListDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, offset, perr := pageParams(c)
		if perr != nil {
			return writeParamError(c, perr)
		}
		res, err := svc.List(c.UserContext(), middleware.OwnerID(c), limit, offset)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// UploadDocument ingests a multipart upload (field name: file, optional format).
//
// @Summary   Upload a document
// @Tags      documents
// @Security  BearerAuth
// @Accept    multipart/form-data
// @Produce   json
// @Param     file   formData file   true  "document"
// @Param     format formData string false "format override, e.g. pdf or docx"
// @Success   201 {object} model.Document
// @Failure   400 {object} errorPayload
// @Failure   413 {object} errorPayload
// @Failure   422 {object} errorPayload
// @Router    /api/v1/documents [post]
func UploadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		doc, err := svc.Ingest(c.UserContext(), service.IngestInput{
			OwnerID:      middleware.OwnerID(c),
			Filename:     fh.Filename,
			FormatHint:   c.FormValue("format"),
			ContentType:  fh.Header.Get("Content-Type"),
			DeclaredSize: fh.Size,
			Body:         f,
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// GetDocument returns one owned document.
//
// @Summary   Get a document
// @Tags      documents
// @Security  BearerAuth
// @Produce   json
// @Param     id path string true "document id"
// @Success   200 {object} model.Document
// @Failure   404 {object} errorPayload
// @Router    /api/v1/documents/{id} [get]
func GetDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, perr := idParam(c)
		if perr != nil {
			return writeParamError(c, perr)
		}
		doc, err := svc.Get(c.UserContext(), middleware.OwnerID(c), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// DownloadDocument streams the original upload as an attachment.
//
// @Summary   Download a document
// @Tags      documents
// @Security  BearerAuth
// @Produce   octet-stream
// @Param     id path string true "document id"
// @Success   200 {file} binary
// @Failure   404 {object} errorPayload
// @Router    /api/v1/documents/{id}/content [get]
func DownloadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, perr := idParam(c)
		if perr != nil {
			return writeParamError(c, perr)
		}
		rc, doc, err := svc.Open(c.UserContext(), middleware.OwnerID(c), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		c.Attachment(doc.OriginalName)
		return c.SendStream(rc, int(doc.Size))
	}
}

// RenameDocument changes the display name; the extension is kept.
//
// @Summary   Rename a document
// @Tags      documents
// @Security  BearerAuth
// @Accept    json
// @Produce   json
// @Param     id   path string        true "document id"
// @Param     body body renameRequest true "new name"
// @Success   200 {object} model.Document
// @Failure   400 {object} errorPayload
// @Failure   404 {object} errorPayload
// @Router    /api/v1/documents/{id} [patch]
func RenameDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, perr := idParam(c)
		if perr != nil {
			return writeParamError(c, perr)
		}
		var req renameRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
			}
		}
		if req.Name == "" {
			req.Name = c.Query("new_name")
		}
		doc, err := svc.Rename(c.UserContext(), middleware.OwnerID(c), id, req.Name)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// DeleteDocument removes a document, its stored bytes and artifact.
//
// @Summary   Delete a document
// @Tags      documents
// @Security  BearerAuth
// @Param     id path string true "document id"
// @Success   204
// @Failure   404 {object} errorPayload
// @Router    /api/v1/documents/{id} [delete]
func DeleteDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, perr := idParam(c)
		if perr != nil {
			return writeParamError(c, perr)
		}
		if err := svc.Delete(c.UserContext(), middleware.OwnerID(c), id); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
