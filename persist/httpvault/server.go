package httpvault

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"chainboy/persist"
)

// MaxStateSize bounds the save state a server accepts.
const MaxStateSize = 16 << 20

// RegisterRoutes mounts POST /saves on e, storing each upload through fn.
func RegisterRoutes(e *echo.Echo, fn persist.StoreFunc) {
	e.POST("/saves", func(c echo.Context) error {
		return handleUpload(c, fn)
	})
}

func handleUpload(c echo.Context, fn persist.StoreFunc) error {
	fail := func(status int, msg string) error {
		return c.JSON(status, ErrorResponse{Error: msg})
	}

	fh, err := c.FormFile("state")
	if err != nil {
		return fail(http.StatusBadRequest, "missing save state")
	}
	if fh.Size > MaxStateSize {
		return fail(http.StatusRequestEntityTooLarge, "save state too large")
	}
	f, err := fh.Open()
	if err != nil {
		return fail(http.StatusBadRequest, err.Error())
	}
	defer f.Close()
	state, err := io.ReadAll(io.LimitReader(f, MaxStateSize))
	if err != nil {
		return fail(http.StatusBadRequest, err.Error())
	}

	capturedAt, err := time.Parse(time.RFC3339Nano, c.FormValue("captured_at"))
	if err != nil {
		return fail(http.StatusBadRequest, "invalid captured_at")
	}

	deviceID := c.Request().Header.Get("X-Device-ID")
	if deviceID == "" {
		deviceID = c.FormValue("device_id")
	}

	record := persist.NewRecord(c.FormValue("title"), state, capturedAt, c.FormValue("platform"))
	tx, err := fn(c.Request().Context(), deviceID, record)
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return c.JSON(he.Code, ErrorResponse{
				Error:   http.StatusText(he.Code),
				Message: fmt.Sprint(he.Message),
			})
		}
		return fail(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, UploadResponse{TransactionID: string(tx)})
}
