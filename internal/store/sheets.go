package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/raycity/authserver/config"
	"github.com/raycity/authserver/types"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsStore persists credentials as rows of a Google Sheet, one user
// per row: username, password hash, createdAt, id. All lookups scan the
// full sheet; the sheet offers no uniqueness constraint, so the
// check-then-insert race documented on Insert remains open here.
type SheetsStore struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
}

var sheetHeader = []interface{}{"username", "password", "createdAt", "id"}

// NewSheetsStore constructs a Sheets-backed store from config.
func NewSheetsStore(ctx context.Context, cfg config.SheetsConfig) (*SheetsStore, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("sheets spreadsheet id is required")
	}
	if strings.TrimSpace(cfg.SheetName) == "" {
		return nil, errors.New("sheets sheet name is required")
	}

	opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	if strings.TrimSpace(cfg.CredentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return &SheetsStore{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     cfg.SheetName,
	}, nil
}

// Init writes the header row when the sheet is empty.
func (s *SheetsStore) Init(ctx context.Context) error {
	headerRange := fmt.Sprintf("%s!A1:D1", s.sheetName)
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, headerRange).Context(ctx).Do()
	if err != nil {
		return err
	}
	if len(resp.Values) > 0 {
		return nil
	}

	_, err = s.service.Spreadsheets.Values.
		Update(s.spreadsheetID, headerRange, &sheets.ValueRange{Values: [][]interface{}{sheetHeader}}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}

// Exists reports whether a row with the given username exists.
func (s *SheetsStore) Exists(ctx context.Context, username string) (bool, error) {
	_, err := s.Find(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Insert appends a new row stamped with the current time.
func (s *SheetsStore) Insert(ctx context.Context, username, passwordHash string) (types.User, error) {
	user := types.User{
		ID:           uuid.NewString(),
		Username:     strings.TrimSpace(username),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}

	row := []interface{}{user.Username, user.PasswordHash, user.CreatedAt.Format(time.RFC3339), user.ID}
	_, err := s.service.Spreadsheets.Values.
		Append(s.spreadsheetID, s.dataRange(), &sheets.ValueRange{Values: [][]interface{}{row}}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return types.User{}, err
	}
	return user, nil
}

// Find scans the sheet for the first row matching the username.
func (s *SheetsStore) Find(ctx context.Context, username string) (types.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return types.User{}, ErrNotFound
	}

	rows, err := s.readRows(ctx)
	if err != nil {
		return types.User{}, err
	}
	for _, row := range rows {
		user, ok := parseSheetRow(row)
		if ok && user.Username == username {
			return user, nil
		}
	}
	return types.User{}, ErrNotFound
}

// ListAll returns every row, omitting credential values.
func (s *SheetsStore) ListAll(ctx context.Context) ([]types.UserSummary, error) {
	rows, err := s.readRows(ctx)
	if err != nil {
		return nil, err
	}

	users := []types.UserSummary{}
	for _, row := range rows {
		user, ok := parseSheetRow(row)
		if !ok {
			continue
		}
		users = append(users, types.UserSummary{
			Username:  user.Username,
			CreatedAt: user.CreatedAt,
		})
	}
	return users, nil
}

// Close is a no-op; the Sheets client holds no persistent connection.
func (s *SheetsStore) Close(ctx context.Context) error {
	return nil
}

// dataRange addresses the user rows below the header.
func (s *SheetsStore) dataRange() string {
	return fmt.Sprintf("%s!A2:D", s.sheetName)
}

func (s *SheetsStore) readRows(ctx context.Context) ([][]interface{}, error) {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.dataRange()).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

// parseSheetRow converts a raw sheet row into a User. Rows with a missing
// username or credential are reported as absent.
func parseSheetRow(row []interface{}) (types.User, bool) {
	if len(row) < 2 {
		return types.User{}, false
	}

	username := strings.TrimSpace(cellString(row[0]))
	passwordHash := cellString(row[1])
	if username == "" || passwordHash == "" {
		return types.User{}, false
	}

	user := types.User{
		Username:     username,
		PasswordHash: passwordHash,
	}
	if len(row) > 2 {
		if t, err := time.Parse(time.RFC3339, cellString(row[2])); err == nil {
			user.CreatedAt = t
		}
	}
	if len(row) > 3 {
		user.ID = cellString(row[3])
	}
	return user, true
}

func cellString(cell interface{}) string {
	s, _ := cell.(string)
	return s
}
