package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/bnema/viewsync/internal/domain"
	"github.com/bnema/viewsync/internal/ports"
)

const (
	configName        = "config"
	configType        = "toml"
	recordsPathKey    = "records.path"
	recordsFileMode   = 0o600
	recordsDirMode    = 0o700
	recordsConfigDir  = ".viewsync"
	recordsConfigFile = "records.toml"
	tempFilePattern   = ".records-*.toml.tmp"

	// MaxNoteBytes bounds the free-text note stored with a customer.
	MaxNoteBytes = 64 << 10
)

// Repository stores customer records in a local TOML file and plays the
// server role for them: it validates submissions and assigns ids and
// timestamps.
type Repository struct {
	recordsPath string
	clock       ports.Clock
	mu          *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.CustomerGateway = (*Repository)(nil)

func NewRepository(cfg *viper.Viper, clock ports.Clock) (*Repository, error) {
	if cfg == nil {
		cfg = viper.New()
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	defaultPath := filepath.Join(homeDir, recordsConfigDir, recordsConfigFile)

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(filepath.Join(homeDir, recordsConfigDir))
	cfg.SetDefault(recordsPathKey, defaultPath)

	err = cfg.ReadInConfig()
	if err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	recordsPath := cfg.GetString(recordsPathKey)
	if recordsPath == "" {
		return nil, errors.New("records path is empty")
	}
	recordsPath, err = normalizeRecordsPath(recordsPath)
	if err != nil {
		return nil, err
	}

	return &Repository{recordsPath: recordsPath, clock: clock, mu: lockForPath(recordsPath)}, nil
}

func (r *Repository) Path() string {
	return r.recordsPath
}

func (r *Repository) GetByID(ctx context.Context, id int64) (domain.CustomerResponse, error) {
	if err := ctx.Err(); err != nil {
		return domain.CustomerResponse{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.CustomerResponse{}, err
	}

	for _, entry := range file.Customers {
		if entry.ID == id {
			return fromSchema(entry), nil
		}
	}

	return domain.CustomerResponse{}, fmt.Errorf("customer %d: %w", id, domain.ErrNotFound)
}

func (r *Repository) List(ctx context.Context) ([]domain.CustomerResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return nil, err
	}

	customers := make([]domain.CustomerResponse, 0, len(file.Customers))
	for _, entry := range file.Customers {
		customers = append(customers, fromSchema(entry))
	}

	return customers, nil
}

// Save creates the customer when id is 0 and replaces it otherwise.
// Contacts without an id get a fresh one.
func (r *Repository) Save(ctx context.Context, id int64, req domain.CustomerRequest) (domain.CustomerResponse, error) {
	if err := ctx.Err(); err != nil {
		return domain.CustomerResponse{}, err
	}
	if len(req.Note) > MaxNoteBytes {
		return domain.CustomerResponse{}, fmt.Errorf("note is %d bytes, limit %d: %w", len(req.Note), MaxNoteBytes, domain.ErrFileTooLarge)
	}
	if err := validateRequest(req); err != nil {
		return domain.CustomerResponse{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.CustomerResponse{}, err
	}

	now := r.clock.Now().UTC().Truncate(time.Second)
	index := -1
	if id != 0 {
		for i := range file.Customers {
			if file.Customers[i].ID == id {
				index = i
				break
			}
		}
		if index < 0 {
			return domain.CustomerResponse{}, fmt.Errorf("customer %d: %w", id, domain.ErrNotFound)
		}
	}

	var entry customerSchema
	if index < 0 {
		file.LastID++
		entry = customerSchema{ID: file.LastID, CreatedAt: formatTime(now)}
	} else {
		entry = file.Customers[index]
	}
	entry.Name = req.Name
	entry.Email = req.Email
	entry.Phone = req.Phone
	entry.Note = req.Note
	entry.UpdatedAt = formatTime(now)
	entry.Contacts = make([]contactSchema, 0, len(req.Contacts))
	for _, contact := range req.Contacts {
		contactID := int64(0)
		if contact.ID != nil {
			contactID = *contact.ID
		} else {
			file.LastContactID++
			contactID = file.LastContactID
		}
		entry.Contacts = append(entry.Contacts, contactSchema{
			ID:      contactID,
			Name:    contact.Name,
			Email:   contact.Email,
			Role:    contact.Role,
			Primary: contact.Primary,
		})
	}

	if index < 0 {
		file.Customers = append(file.Customers, entry)
	} else {
		file.Customers[index] = entry
	}

	if err := ctx.Err(); err != nil {
		return domain.CustomerResponse{}, err
	}

	if err := r.writeSchema(file); err != nil {
		return domain.CustomerResponse{}, err
	}

	return fromSchema(entry), nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	for i := range file.Customers {
		if file.Customers[i].ID != id {
			continue
		}
		file.Customers = append(file.Customers[:i], file.Customers[i+1:]...)
		return r.writeSchema(file)
	}

	return fmt.Errorf("customer %d: %w", id, domain.ErrNotFound)
}

func validateRequest(req domain.CustomerRequest) error {
	contacts := make([]*domain.Contact, 0, len(req.Contacts))
	for _, contact := range req.Contacts {
		contacts = append(contacts, &domain.Contact{Name: contact.Name, Email: contact.Email, Role: contact.Role, Primary: contact.Primary})
	}
	customer := domain.Customer{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Note:     req.Note,
		Contacts: domain.NewContacts(contacts...),
	}
	return customer.Validate()
}

func (r *Repository) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(r.recordsPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSchema{Version: currentSchemaVersion}, nil
		}
		return fileSchema{}, fmt.Errorf("read records file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode records file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func normalizeRecordsPath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve records path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func (r *Repository) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(r.recordsPath), recordsDirMode); err != nil {
		return fmt.Errorf("create records directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode records file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(r.recordsPath), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp records file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp records file: %w", err)
	}

	if err := tempFile.Chmod(recordsFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp records file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp records file: %w", err)
	}

	if err := os.Rename(tempName, r.recordsPath); err != nil {
		return fmt.Errorf("replace records file: %w", err)
	}

	cleanup = false
	return nil
}

func fromSchema(entry customerSchema) domain.CustomerResponse {
	contacts := make([]domain.ContactResponse, 0, len(entry.Contacts))
	for _, contact := range entry.Contacts {
		contacts = append(contacts, domain.ContactResponse{
			ID:      contact.ID,
			Name:    contact.Name,
			Email:   contact.Email,
			Role:    contact.Role,
			Primary: contact.Primary,
		})
	}

	resp := domain.CustomerResponse{
		ID:        entry.ID,
		Name:      entry.Name,
		Email:     entry.Email,
		Phone:     entry.Phone,
		Note:      entry.Note,
		Contacts:  contacts,
		CreatedAt: parseTime(entry.CreatedAt),
		UpdatedAt: parseTime(entry.UpdatedAt),
	}
	resp.DisplayName = domain.CustomerFromResponse(resp).DisplayName()
	return resp
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.Format(time.RFC3339)
}
