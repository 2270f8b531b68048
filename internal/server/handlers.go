package server

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"contour-tracer/internal/bitmap"
	"contour-tracer/internal/contour"
	"contour-tracer/internal/filter"
	"contour-tracer/internal/pipeline"
	"contour-tracer/pkg/geometry"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// ParamsRequest is a partial parameter update. Absent fields keep their
// current value.
type ParamsRequest struct {
	Isovalue            *int    `json:"isovalue"`
	StepSize            *int    `json:"step_size"`
	BinaryInterpolation *bool   `json:"binary_interpolation"`
	Hull                *string `json:"hull"`
}

// ParamsResponse reports the active parameter snapshot.
type ParamsResponse struct {
	Isovalue            int    `json:"isovalue"`
	StepSize            int    `json:"step_size"`
	BinaryInterpolation bool   `json:"binary_interpolation"`
	Hull                string `json:"hull"`
}

// StatusResponse reports the worker state.
type StatusResponse struct {
	State      string  `json:"state"`
	QueueDepth int     `json:"queue_depth"`
	Frames     uint64  `json:"frames"`
	LastError  *string `json:"last_error"`
}

// ContoursResponse is the most recent trace result.
type ContoursResponse struct {
	Contours []contour.Contour   `json:"contours"`
	Hulls    []geometry.Polygon `json:"hulls,omitempty"`
	Broken   int                `json:"broken"`
	Bounds   *geometry.Rect     `json:"bounds,omitempty"`
	Params   ParamsResponse     `json:"params"`
}

func fail(c *gin.Context, status int, message string, err error) {
	resp := ErrorResponse{Message: message}
	if err != nil {
		resp.Error = err.Error()
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, resp)
}

// queued answers a successfully enqueued command.
func (s *Server) queued(c *gin.Context, err error) {
	if err != nil {
		if errors.Is(err, pipeline.ErrClosed) {
			fail(c, http.StatusServiceUnavailable, "processor stopped", err)
			return
		}
		fail(c, http.StatusInternalServerError, "failed to queue command", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"success":     true,
		"queue_depth": s.pipe.QueueDepth(),
	})
}

func (s *Server) postImage(c *gin.Context) {
	data, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(c, http.StatusRequestEntityTooLarge, "image too large", err)
			return
		}
		fail(c, http.StatusBadRequest, "failed to read body", err)
		return
	}

	b, err := bitmap.Decode(bytes.NewReader(data))
	var formatErr *bitmap.FormatError
	if err != nil && s.opts.LegacyBMP && errors.As(err, &formatErr) {
		s.log.Debug("falling back to generic BMP decoder", zap.Error(err))
		b, err = bitmap.Import(bytes.NewReader(data))
	}
	if err != nil {
		fail(c, http.StatusBadRequest, "not a supported bitmap", err)
		return
	}

	s.log.Info("image uploaded",
		zap.Int("width", b.Width()),
		zap.Int("height", b.Height()),
		zap.Int("depth", b.Depth()))
	s.queued(c, s.pipe.LoadBitmap(b))
}

func (s *Server) getImage(c *gin.Context) {
	frame, ok := s.pipe.Frame()
	if !ok {
		fail(c, http.StatusNotFound, "no frame published yet", nil)
		return
	}
	c.Data(http.StatusOK, "image/bmp", frame)
}

func (s *Server) postFilter(c *gin.Context) {
	k, err := filter.ParseName(c.Param("kind"))
	if err != nil {
		fail(c, http.StatusNotFound, "unknown filter", err)
		return
	}
	s.queued(c, s.pipe.ApplyFilter(k))
}

func (s *Server) listFilters(c *gin.Context) {
	names := make([]string, 0, len(filter.Kinds()))
	for _, k := range filter.Kinds() {
		names = append(names, k.String())
	}
	c.JSON(http.StatusOK, gin.H{"filters": names})
}

func paramsResponse(p contour.Params) ParamsResponse {
	return ParamsResponse{
		Isovalue:            p.Isovalue,
		StepSize:            p.Step,
		BinaryInterpolation: p.BinaryInterpolation,
		Hull:                p.Hull.String(),
	}
}

func (s *Server) getParams(c *gin.Context) {
	c.JSON(http.StatusOK, paramsResponse(s.pipe.Params()))
}

func (s *Server) putParams(c *gin.Context) {
	var req ParamsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid parameters", err)
		return
	}

	next := s.pipe.Params()
	if req.Isovalue != nil {
		next.Isovalue = *req.Isovalue
	}
	if req.StepSize != nil {
		next.Step = *req.StepSize
	}
	if req.BinaryInterpolation != nil {
		next.BinaryInterpolation = *req.BinaryInterpolation
	}
	if req.Hull != nil {
		hull, err := geometry.ParseHullAlgorithm(*req.Hull)
		if err != nil {
			fail(c, http.StatusBadRequest, "invalid parameters", err)
			return
		}
		next.Hull = hull
	}
	if err := next.Validate(); err != nil {
		fail(c, http.StatusBadRequest, "invalid parameters", err)
		return
	}
	s.queued(c, s.pipe.SetParams(next))
}

func (s *Server) toggleBinary(c *gin.Context) {
	s.queued(c, s.pipe.ToggleBinary())
}

func (s *Server) getContours(c *gin.Context) {
	res := s.pipe.Result()
	if res == nil {
		fail(c, http.StatusNotFound, "nothing traced yet", nil)
		return
	}
	contours := res.Contours
	if contours == nil {
		contours = []contour.Contour{}
	}
	resp := ContoursResponse{
		Contours: contours,
		Hulls:    res.Hulls,
		Broken:   res.Broken,
		Params:   paramsResponse(res.Params),
	}
	if box, ok := res.Bounds(); ok {
		resp.Bounds = &box
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) getStatus(c *gin.Context) {
	resp := StatusResponse{
		State:      s.pipe.State().String(),
		QueueDepth: s.pipe.QueueDepth(),
		Frames:     s.pipe.Frames(),
	}
	if err := s.pipe.LastError(); err != nil {
		msg := err.Error()
		resp.LastError = &msg
	}
	c.JSON(http.StatusOK, resp)
}
