package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spec-kit/ticket-dashboard/internal/config"
	"github.com/spec-kit/ticket-dashboard/internal/records"
)

const maxExportPages = 10000

// ExportSource pages through the ticketing system's export endpoint.
type ExportSource struct {
	cfg    config.ExportConfig
	client *http.Client
	now    func() time.Time
}

// NewExportSource builds a source. client may be nil.
func NewExportSource(cfg config.ExportConfig, client *http.Client) *ExportSource {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 200
	}
	return &ExportSource{cfg: cfg, client: client, now: time.Now}
}

func (s *ExportSource) Name() string { return "export:" + s.cfg.URL }

type exportPage struct {
	Status      string       `json:"status"`
	Data        []exportItem `json:"data"`
	IsNextIndex bool         `json:"is_next_index"`
}

// Fetch implements Source. Pages are requested from index 1 until the API stops
// reporting a next index or answers with a non-success status.
func (s *ExportSource) Fetch(ctx context.Context) ([]records.RawRow, error) {
	var rows []records.RawRow
	for index := 1; index <= maxExportPages; index++ {
		page, err := s.fetchPage(ctx, index)
		if err != nil {
			return nil, fmt.Errorf("export page %d: %w", index, err)
		}
		if page.Status != "success" {
			break
		}
		for _, item := range page.Data {
			rows = append(rows, item.row())
		}
		if !page.IsNextIndex {
			break
		}
	}
	return rows, nil
}

func (s *ExportSource) fetchPage(ctx context.Context, index int) (*exportPage, error) {
	form := url.Values{}
	form.Set("index", strconv.Itoa(index))
	form.Set("list_size", strconv.Itoa(s.cfg.PageSize))
	form.Set("filters[based_on]", "1")
	form.Set("filters[date_range]", fmt.Sprintf("%s - %s 23:59:59", s.cfg.From, s.now().Format("02-01-2006")))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if s.cfg.AppToken != "" {
		req.Header.Set("apptoken", s.cfg.AppToken)
	}
	if s.cfg.Username != "" {
		req.SetBasicAuth(s.cfg.Username, s.cfg.Password)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var page exportPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &page, nil
}

// exportItem accepts the loosely typed objects the export produces.
type exportItem struct {
	ID              flexString `json:"id"`
	TicketID        flexString `json:"ticket_id"`
	CreatedAt       flexString `json:"created_at_format"`
	ClosedAt        flexString `json:"closed_at_format"`
	Status          flexString `json:"status"`
	ProblemCategory flexString `json:"problem_category"`
	AssignedTo      flexString `json:"assigned_to_name"`
	Department      flexString `json:"department"`
	Location        flexString `json:"location"`
}

func (i exportItem) row() records.RawRow {
	id := string(i.ID)
	if id == "" {
		id = string(i.TicketID)
	}
	return records.RawRow{
		ID:              id,
		CreatedAt:       string(i.CreatedAt),
		ClosedAt:        string(i.ClosedAt),
		Status:          string(i.Status),
		ProblemCategory: string(i.ProblemCategory),
		AssignedTo:      string(i.AssignedTo),
		Department:      string(i.Department),
		Location:        string(i.Location),
	}
}

// flexString decodes strings, numbers and booleans as text and null as "".
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	if data[0] == '{' || data[0] == '[' {
		return fmt.Errorf("expected scalar, got %s", data)
	}
	*f = flexString(data)
	return nil
}
