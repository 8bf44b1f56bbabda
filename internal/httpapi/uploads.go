package httpapi

import (
	"errors"
	"net/http"

	"github.com/p-n-ai/teaching-torch/internal/catalog"
	"github.com/p-n-ai/teaching-torch/internal/upload"
)

const multipartMemory = 10 << 20

// uploadForm is a parsed multipart upload for one (grade, subject).
type uploadForm struct {
	gradeID   string
	subjectID string
	r         *http.Request
}

func (s *Server) parseUpload(w http.ResponseWriter, r *http.Request) (*uploadForm, error) {
	gradeID, subjectID, err := s.pairFromPath(r)
	if err != nil {
		return nil, err
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, badRequest("upload exceeds %d bytes", tooLarge.Limit)
		}
		return nil, badRequest("invalid multipart form: %v", err)
	}
	return &uploadForm{gradeID: gradeID, subjectID: subjectID, r: r}, nil
}

func (f *uploadForm) value(key string) string { return f.r.FormValue(key) }

// receiveFile sends the "file" part to the uploader. Only PDFs are accepted.
func (s *Server) receiveFile(f *uploadForm, kind upload.Kind) (catalog.FileData, error) {
	file, header, err := f.r.FormFile("file")
	if err != nil {
		return catalog.FileData{}, badRequest("file is required")
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !upload.IsPDF(header.Filename, contentType) {
		return catalog.FileData{}, badRequest("only PDF files are accepted")
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = "application/pdf"
	}

	fd, err := s.uploader.Upload(f.r.Context(), upload.Request{
		GradeID:     f.gradeID,
		SubjectID:   f.subjectID,
		Kind:        kind,
		Filename:    header.Filename,
		ContentType: contentType,
		Body:        file,
	})
	if err != nil {
		return catalog.FileData{}, err
	}
	s.logger.Info("file uploaded",
		"grade_id", f.gradeID,
		"subject_id", f.subjectID,
		"path", fd.Path,
		"size", upload.FormatSize(fd.Size),
	)
	return fd, nil
}

func (s *Server) handleUploadTextbook(w http.ResponseWriter, r *http.Request) {
	f, err := s.parseUpload(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	medium, err := catalog.ParseLanguage(f.value("language"))
	if err != nil {
		writeError(w, err)
		return
	}
	fd, err := s.receiveFile(f, upload.KindTextbook)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.PutTextbook(r.Context(), f.gradeID, f.subjectID, medium, fd); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, fd)
}

func (s *Server) handleUploadPaper(w http.ResponseWriter, r *http.Request) {
	f, err := s.parseUpload(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	c, err := catalog.ParseCategory(f.value("type"), f.value("category"))
	if err != nil {
		writeError(w, err)
		return
	}
	opts := catalog.PaperOptions{School: f.value("school")}
	if v := f.value("language"); v != "" {
		if opts.Language, err = catalog.ParseLanguage(v); err != nil {
			writeError(w, err)
			return
		}
	}
	fd, err := s.receiveFile(f, upload.KindPaper)
	if err != nil {
		writeError(w, err)
		return
	}
	p, err := s.store.AddPaper(r.Context(), f.gradeID, f.subjectID, c, fd, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleUploadNote(w http.ResponseWriter, r *http.Request) {
	f, err := s.parseUpload(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	chapter := f.value("chapter")
	if chapter == "" {
		writeError(w, badRequest("chapter is required"))
		return
	}
	var lang catalog.Language
	if v := f.value("language"); v != "" {
		if lang, err = catalog.ParseLanguage(v); err != nil {
			writeError(w, err)
			return
		}
	}
	fd, err := s.receiveFile(f, upload.KindNote)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.PutNote(r.Context(), f.gradeID, f.subjectID, chapter, fd, lang); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, fd)
}
