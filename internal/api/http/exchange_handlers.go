package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-mcsaon/internal/bank"
	"github.com/mind-engage/mindengage-mcsaon/internal/qformat"
	"github.com/mind-engage/mindengage-mcsaon/internal/restore"
	"github.com/mind-engage/mindengage-mcsaon/internal/storage"
)

const maxImportBytes = 8 << 20

// GET /questions/{id}/export[?store=1]
func ExportHandler(svc *bank.Service, bs storage.BlobStore, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := questionID(w, r)
		if !ok {
			return
		}
		def, err := svc.Get(r.Context(), id)
		if err != nil {
			respondErr(w, err)
			return
		}
		var buf bytes.Buffer
		if err := qformat.Export(&buf, def); err != nil {
			respondErr(w, err)
			return
		}

		if r.URL.Query().Get("store") != "1" {
			w.Header().Set("Content-Type", "application/xml")
			w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xml"`, id))
			_, _ = w.Write(buf.Bytes())
			return
		}
		if bs == nil {
			http.Error(w, "blob store not configured", http.StatusServiceUnavailable)
			return
		}
		key := "exports/" + id + ".xml"
		size := int64(buf.Len())
		key, err = bs.Put(r.Context(), key, &buf, size, "application/xml")
		if err != nil {
			log.Error("export store failed", zap.String("question_id", id), zap.Error(err))
			http.Error(w, "store error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		out := map[string]string{"key": key}
		if u, err := bs.SignedURL(r.Context(), key); err == nil {
			out["url"] = u
		}
		respondJSON(w, http.StatusCreated, out)
	}
}

type importedQuestion struct {
	Index  int              `json:"index"`
	Result *bank.SaveResult `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// POST /questions/import (raw XML body, or multipart with file=quiz.xml)
// Every question is saved under a fresh id and validated like any other save.
func ImportHandler(svc *bank.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
		var src io.Reader = r.Body
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
			f, _, err := r.FormFile("file")
			if err != nil {
				http.Error(w, "file required", http.StatusBadRequest)
				return
			}
			defer f.Close()
			src = f
		}
		res, err := qformat.Import(src)
		if err != nil && !errors.Is(err, qformat.ErrNoQuestions) {
			http.Error(w, "import: "+err.Error(), http.StatusBadRequest)
			return
		}

		out := struct {
			Imported []importedQuestion `json:"imported"`
			Skipped  []qformat.Skipped  `json:"skipped,omitempty"`
		}{Imported: []importedQuestion{}, Skipped: res.Skipped}
		for i, def := range res.Questions {
			def.ID = ""
			saved, err := svc.Save(r.Context(), def)
			if err != nil {
				out.Imported = append(out.Imported, importedQuestion{Index: i, Error: err.Error()})
				continue
			}
			out.Imported = append(out.Imported, importedQuestion{Index: i, Result: &saved})
		}
		log.Info("questions imported", zap.Int("questions", len(res.Questions)), zap.Int("skipped", len(res.Skipped)))
		respondJSON(w, http.StatusOK, out)
	}
}

// GET /questions/{id}/backup
func BackupHandler(svc *bank.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := questionID(w, r)
		if !ok {
			return
		}
		def, err := svc.Get(r.Context(), id)
		if err != nil {
			respondErr(w, err)
			return
		}
		rec, err := restore.ToRecord(def)
		if err != nil {
			respondErr(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.json"`, id))
		_ = restore.WriteRecords(w, []restore.Record{rec})
	}
}

// POST /questions/restore
// Body is a JSON array of backup records, restored in order with one id
// mapping per request. The first failure stops the run and the records
// already restored are reported.
func RestoreHandler(rs *restore.Restorer, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
		recs, err := restore.ReadRecords(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		done, _, err := rs.Run(r.Context(), recs)
		if err != nil {
			log.Warn("restore stopped", zap.Int("restored", len(done)), zap.Error(err))
			respondJSON(w, http.StatusUnprocessableEntity, map[string]any{"restored": done, "error": err.Error()})
			return
		}
		respondJSON(w, http.StatusCreated, map[string]any{"restored": done})
	}
}
