package survey

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	types "github.com/yungbote/survey-backend/internal/domain/survey"
	"github.com/yungbote/survey-backend/internal/platform/logger"
)

const DefaultSheetTitle = "Responses"

type SheetsConfig struct {
	SpreadsheetID string
	// Title names the worksheet; the first worksheet is used when no sheet has this title.
	Title string
}

type sheetsStore struct {
	svc    *sheets.Service
	cfg    SheetsConfig
	locker Locker
	now    func() time.Time
	log    *logger.Logger

	mu    sync.Mutex
	title string
}

// NewSheetsStore appends one row per record to a worksheet whose header row
// names the columns. The read-check-append sequence runs under locker since
// the Sheets API has no conditional append.
func NewSheetsStore(ctx context.Context, cfg SheetsConfig, locker Locker, baseLog *logger.Logger, opts ...option.ClientOption) (Store, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(cfg.Title) == "" {
		cfg.Title = DefaultSheetTitle
	}
	if locker == nil {
		locker = NewLocalLocker()
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &sheetsStore{
		svc:    svc,
		cfg:    cfg,
		locker: locker,
		now:    time.Now,
		log:    baseLog.With("repo", "SurveySheetsStore", "spreadsheet_id", cfg.SpreadsheetID),
	}, nil
}

func (s *sheetsStore) sheetTitle(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.title != "" {
		return s.title, nil
	}

	ss, err := s.svc.Spreadsheets.Get(s.cfg.SpreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return "", err
	}
	if len(ss.Sheets) == 0 {
		return "", errors.New("spreadsheet has no worksheets")
	}
	title := ""
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == s.cfg.Title {
			title = sh.Properties.Title
			break
		}
	}
	if title == "" {
		if ss.Sheets[0].Properties == nil {
			return "", errors.New("first worksheet has no properties")
		}
		title = ss.Sheets[0].Properties.Title
		s.log.Warn("Worksheet not found, using first worksheet", "want", s.cfg.Title, "using", title)
	}
	s.title = title
	return title, nil
}

func quoteSheet(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

// rows returns the header and data rows of the worksheet.
func (s *sheetsStore) rows(ctx context.Context) (string, []string, [][]interface{}, error) {
	title, err := s.sheetTitle(ctx)
	if err != nil {
		return "", nil, nil, types.Unavailable(BackendSheets, "resolve worksheet", err)
	}
	resp, err := s.svc.Spreadsheets.Values.Get(s.cfg.SpreadsheetID, quoteSheet(title)).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return "", nil, nil, types.Unavailable(BackendSheets, "read", err)
	}
	if len(resp.Values) == 0 {
		return title, nil, nil, nil
	}
	header := make([]string, len(resp.Values[0]))
	for i, v := range resp.Values[0] {
		header[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return title, header, resp.Values[1:], nil
}

func columnIndex(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

func cell(row []interface{}, i int) interface{} {
	if i < 0 || i >= len(row) {
		return nil
	}
	return row[i]
}

func findRow(header []string, rows [][]interface{}, email string) []interface{} {
	col := columnIndex(header, types.FieldEmail)
	if col < 0 {
		return nil
	}
	for _, row := range rows {
		if v := cell(row, col); v != nil && fmt.Sprint(v) == email {
			return row
		}
	}
	return nil
}

func (s *sheetsStore) Exists(ctx context.Context, email string) (bool, error) {
	_, header, rows, err := s.rows(ctx)
	if err != nil {
		return false, err
	}
	return findRow(header, rows, email) != nil, nil
}

func (s *sheetsStore) Get(ctx context.Context, email string) (*types.Record, error) {
	_, header, rows, err := s.rows(ctx)
	if err != nil {
		return nil, err
	}
	row := findRow(header, rows, email)
	if row == nil {
		return nil, types.ErrNotFound
	}
	return recordFromRow(header, row), nil
}

func (s *sheetsStore) Append(ctx context.Context, rec *types.Record) (*types.Record, error) {
	if rec == nil || strings.TrimSpace(rec.Email) == "" {
		return nil, types.ErrEmailRequired
	}
	unlock, err := s.locker.Lock(ctx, "sheets:"+s.cfg.SpreadsheetID)
	if err != nil {
		return nil, types.Unavailable(BackendSheets, "lock", err)
	}
	defer unlock()

	title, header, rows, err := s.rows(ctx)
	if err != nil {
		return nil, err
	}
	if findRow(header, rows, rec.Email) != nil {
		return nil, types.ErrDuplicateEmail
	}

	if len(header) == 0 {
		header = append([]string{}, types.Columns...)
		headerRow := make([]interface{}, len(header))
		for i, h := range header {
			headerRow[i] = h
		}
		_, err := s.svc.Spreadsheets.Values.Update(s.cfg.SpreadsheetID, quoteSheet(title)+"!A1", &sheets.ValueRange{
			Values: [][]interface{}{headerRow},
		}).ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return nil, types.Unavailable(BackendSheets, "write header", err)
		}
		s.log.Info("Wrote header row", "sheet", title)
	}

	out := *rec
	out.Stamp(s.now())

	_, err = s.svc.Spreadsheets.Values.Append(s.cfg.SpreadsheetID, quoteSheet(title), &sheets.ValueRange{
		Values: [][]interface{}{rowFromRecord(header, &out)},
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return nil, types.Unavailable(BackendSheets, "append", err)
	}
	return &out, nil
}

func (s *sheetsStore) Close() error { return nil }

func rowFromRecord(header []string, rec *types.Record) []interface{} {
	row := make([]interface{}, len(header))
	for i, h := range header {
		var v interface{}
		switch h {
		case types.FieldEmail:
			v = rec.Email
		case types.FieldSubmittedAt:
			v = rec.SubmittedAt.UTC().Format(time.RFC3339Nano)
		case types.FieldID:
			v = rec.ID.String()
		default:
			v = types.Scalar(rec.Answer(h))
		}
		// nil is sent as a skipped cell.
		row[i] = v
	}
	return row
}

// recordFromRow treats cells past the end of row as absent answers. Sheets returns
// empty interior cells as "", so those decode as empty strings.
func recordFromRow(header []string, row []interface{}) *types.Record {
	rec := &types.Record{}
	for i, h := range header {
		v := cell(row, i)
		switch h {
		case types.FieldEmail:
			rec.Email = fmt.Sprint(v)
		case types.FieldSubmittedAt:
			if ts, ok := v.(string); ok {
				if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
					rec.SubmittedAt = t.UTC()
				}
			}
		case types.FieldID:
			if id, err := uuid.Parse(fmt.Sprint(v)); err == nil {
				rec.ID = id
			}
		default:
			rec.SetAnswer(h, types.FromScalar(v))
		}
	}
	return rec
}
