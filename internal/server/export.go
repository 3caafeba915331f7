package server

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/TobiSchelling/clicklabel/internal/database"
)

var exportHeader = []string{
	"item_key", "title", "description", "view_count", "like_count",
	"thumbnail_url", "duration_seconds", "upload_date", "channel_id",
	"channel_name", "video_url", "is_clickbait", "confidence",
	"labeled_by", "labeled_at",
}

func (s *Server) handleExport(c *gin.Context) {
	rows, err := s.stats.Export(c.Request.Context())
	if err != nil {
		respondFailure(c, err)
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="labels.csv"`)
	if err := WriteCSV(c.Writer, rows); err != nil {
		s.log.Error("writing export", "error", err)
	}
}

// WriteCSV writes labeled rows with a header line.
func WriteCSV(w io.Writer, rows []database.ExportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.ItemKey,
			deref(r.Title),
			deref(r.Description),
			derefInt(r.ViewCount),
			derefInt(r.LikeCount),
			deref(r.ThumbnailURL),
			derefInt(r.DurationSeconds),
			deref(r.UploadDate),
			deref(r.ChannelID),
			deref(r.ChannelName),
			deref(r.VideoURL),
			strconv.FormatBool(r.IsPositive),
			strconv.Itoa(r.Confidence),
			r.LabeledBy,
			r.LabeledAt.Format("2006-01-02 15:04:05"),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(n *int64) string {
	if n == nil {
		return ""
	}
	return strconv.FormatInt(*n, 10)
}
