package handler

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/criszst/neopdf-sub000/internal/http/middleware"
	"github.com/criszst/neopdf-sub000/internal/model"
	"github.com/criszst/neopdf-sub000/internal/service"
)

// HealthCheck reports readiness by pinging the database.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a plain 200 for orchestrator liveness checks.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// UploadDocument accepts a multipart PDF upload (field name: file) and runs it
// through the dedup pipeline.
func UploadDocument(pipeline service.UploadPipeline) fiber.Handler {
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

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		res, err := pipeline.Upload(c.UserContext(), f, fh.Filename, ct, fh.Size, middleware.OwnerID(c))
		if err != nil {
			return writeServiceError(c, err)
		}

		return c.Status(fiber.StatusCreated).JSON(struct {
			Success bool `json:"success"`
			*service.UploadResult
		}{true, res})
	}
}

// ListDocuments lists the caller's documents with limit, offset, starred and
// sort query parameters.
func ListDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := svc.List(c.UserContext(), middleware.OwnerID(c), service.DocumentListQuery{
			Limit:       limit,
			Offset:      offset,
			StarredOnly: c.QueryBool("starred", false),
			Sort:        c.Query("sort", ""),
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// GetDocument returns document metadata by ID.
func GetDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := svc.Get(c.UserContext(), id, middleware.OwnerID(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// OpenDocument streams the PDF content inline. The view is recorded (and the
// view counter bumped) before the first byte goes out; a failed recording
// fails the request.
func OpenDocument(svc service.DocumentService, recorder service.ActivityRecorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		owner := middleware.OwnerID(c)

		if _, err := recorder.Record(c.UserContext(), model.ActivityView, owner, id, ""); err != nil {
			return writeServiceError(c, err)
		}

		doc, rc, err := svc.Open(c.UserContext(), id, owner)
		if err != nil {
			return writeServiceError(c, err)
		}

		c.Set(fiber.HeaderContentType, doc.ContentType)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", doc.Name))
		return c.SendStream(rc, int(doc.SizeBytes))
	}
}

// DownloadDocument returns a presigned URL for the content and records the
// download.
func DownloadDocument(svc service.DocumentService, recorder service.ActivityRecorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		owner := middleware.OwnerID(c)

		url, err := svc.DownloadURL(c.UserContext(), id, owner)
		if err != nil {
			return writeServiceError(c, err)
		}
		if _, err := recorder.Record(c.UserContext(), model.ActivityDownload, owner, id, ""); err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"url": url})
	}
}

// StarDocument flips the star flag on and records the event.
func StarDocument(recorder service.ActivityRecorder) fiber.Handler {
	return recordOnDocument(recorder, model.ActivityStar)
}

// UnstarDocument flips the star flag off and records the event.
func UnstarDocument(recorder service.ActivityRecorder) fiber.Handler {
	return recordOnDocument(recorder, model.ActivityUnstar)
}

func recordOnDocument(recorder service.ActivityRecorder, typ model.ActivityType) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if _, err := recorder.Record(c.UserContext(), typ, middleware.OwnerID(c), id, ""); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ShareDocument returns a presigned URL meant for handing out, and records
// the share in the ledger.
func ShareDocument(svc service.DocumentService, recorder service.ActivityRecorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		owner := middleware.OwnerID(c)

		url, err := svc.DownloadURL(c.UserContext(), id, owner)
		if err != nil {
			return writeServiceError(c, err)
		}
		if _, err := recorder.Record(c.UserContext(), model.ActivityShare, owner, id, "shared via link"); err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"url": url})
	}
}

// DeleteDocument removes the document and its stored object.
func DeleteDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), id, middleware.OwnerID(c)); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ListActivities returns the caller's recent activity, newest first.
func ListActivities(recorder service.ActivityRecorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "20"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := recorder.Recent(c.UserContext(), middleware.OwnerID(c), limit, offset)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// ActivityStats returns per-type activity counts over a trailing ?days window.
func ActivityStats(recorder service.ActivityRecorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		days, err := strconv.Atoi(c.Query("days", "7"))
		if err != nil || days < 0 {
			return writeError(c, fiber.StatusBadRequest, "INVALID_DAYS", "invalid days")
		}

		counts, err := recorder.Stats(c.UserContext(), middleware.OwnerID(c), time.Duration(days)*24*time.Hour)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"days": days, "counts": counts})
	}
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app. Probes and
// docs stay open; everything document- or activity-shaped sits behind the
// identity middleware.
func RegisterRoutes(app *fiber.App, db *sql.DB, pipeline service.UploadPipeline, docSvc service.DocumentService, recorder service.ActivityRecorder) {
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	app.Use(middleware.Identity())

	app.Post("/documents", UploadDocument(pipeline))
	app.Get("/documents", ListDocuments(docSvc))
	app.Get("/documents/:id", GetDocument(docSvc))
	app.Get("/documents/:id/download", DownloadDocument(docSvc, recorder))
	app.Post("/documents/:id/star", StarDocument(recorder))
	app.Delete("/documents/:id/star", UnstarDocument(recorder))
	app.Post("/documents/:id/share", ShareDocument(docSvc, recorder))
	app.Delete("/documents/:id", DeleteDocument(docSvc))
	app.Get("/pdf/:id", OpenDocument(docSvc, recorder))

	app.Get("/activities", ListActivities(recorder))
	app.Get("/activities/stats", ActivityStats(recorder))
}
