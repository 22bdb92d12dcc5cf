package service

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"iotguardian/internal/models"
	"iotguardian/internal/repository"
)

// IssueRequest is the admin create/update payload for a guide entry.
type IssueRequest struct {
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	ImageURL        string     `json:"imageUrl"`
	PotentialCauses []string   `json:"potentialCauses"`
	Solutions       []string   `json:"solutions"`
	ReportedDate    *time.Time `json:"reportedDate,omitempty"`
}

func (req IssueRequest) validate() error {
	v := &ValidationError{}
	if strings.TrimSpace(req.Title) == "" {
		v.add("title", "Title is required.")
	}
	if strings.TrimSpace(req.Description) == "" {
		v.add("description", "Description is required.")
	}
	return v.err()
}

// IssueService manages the troubleshooting guide.
type IssueService struct {
	issues *repository.Table[models.Issue]
	now    func() time.Time
}

func NewIssueService(seed []models.Issue) *IssueService {
	s := &IssueService{issues: repository.NewTable[models.Issue](), now: time.Now}
	for _, is := range seed {
		s.issues.Put(is.ID, is)
	}
	return s
}

// List returns issues whose title or description contains q, newest first.
func (s *IssueService) List(q string) []models.Issue {
	q = strings.ToLower(strings.TrimSpace(q))
	out := []models.Issue{}
	for _, is := range s.issues.List() {
		if q != "" && !strings.Contains(strings.ToLower(is.Title), q) && !strings.Contains(strings.ToLower(is.Description), q) {
			continue
		}
		out = append(out, is)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ReportedDate.After(out[j].ReportedDate) })
	return out
}

func (s *IssueService) Get(id string) (models.Issue, error) {
	is, ok := s.issues.Get(id)
	if !ok {
		return models.Issue{}, newError(ErrNotFound, "Issue %s not found.", id)
	}
	return is, nil
}

func nonNil(list []string) []string {
	out := []string{}
	for _, v := range list {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (s *IssueService) Create(req IssueRequest) (models.Issue, error) {
	if err := req.validate(); err != nil {
		return models.Issue{}, err
	}
	is := models.Issue{
		ID:              "issue_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
		Title:           strings.TrimSpace(req.Title),
		Description:     strings.TrimSpace(req.Description),
		ImageURL:        req.ImageURL,
		PotentialCauses: nonNil(req.PotentialCauses),
		Solutions:       nonNil(req.Solutions),
		ReportedDate:    s.now(),
	}
	if req.ReportedDate != nil {
		is.ReportedDate = *req.ReportedDate
	}
	s.issues.Put(is.ID, is)
	return is, nil
}

func (s *IssueService) Update(id string, req IssueRequest) (models.Issue, error) {
	if err := req.validate(); err != nil {
		return models.Issue{}, err
	}
	is, ok, _ := s.issues.Update(id, func(is *models.Issue) error {
		is.Title = strings.TrimSpace(req.Title)
		is.Description = strings.TrimSpace(req.Description)
		is.ImageURL = req.ImageURL
		is.PotentialCauses = nonNil(req.PotentialCauses)
		is.Solutions = nonNil(req.Solutions)
		if req.ReportedDate != nil {
			is.ReportedDate = *req.ReportedDate
		}
		return nil
	})
	if !ok {
		return models.Issue{}, newError(ErrNotFound, "Issue %s not found.", id)
	}
	return is, nil
}

func (s *IssueService) Delete(id string) error {
	if !s.issues.Delete(id) {
		return newError(ErrNotFound, "Issue %s not found.", id)
	}
	return nil
}

// ExportCSV renders every issue with list fields joined by "; ".
func (s *IssueService) ExportCSV() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"ID", "Title", "Description", "Image URL", "Potential Causes", "Solutions", "Reported Date"})
	for _, is := range s.List("") {
		_ = w.Write([]string{
			is.ID,
			is.Title,
			is.Description,
			is.ImageURL,
			strings.Join(is.PotentialCauses, "; "),
			strings.Join(is.Solutions, "; "),
			is.ReportedDate.Format(csvTimeLayout),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}
