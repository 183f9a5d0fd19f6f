package toml

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/viewsync/internal/domain"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

var testNow = time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC)

func newTestRepository(t *testing.T, recordsPath string) *Repository {
	t.Helper()
	config := viper.New()
	config.Set("records.path", recordsPath)

	repo, err := NewRepository(config, fixedClock{now: testNow})
	require.NoError(t, err)
	return repo
}

func TestRepositoryRoundTrip(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "records.toml"))

	first, err := repo.Save(context.Background(), 0, domain.CustomerRequest{
		Name:  "ACME",
		Email: "ops@acme.test",
		Contacts: []domain.ContactRequest{
			{Name: "Ada", Role: "owner", Primary: true},
			{Name: "Grace", Role: "billing"},
		},
	})
	require.NoError(t, err)
	second, err := repo.Save(context.Background(), 0, domain.CustomerRequest{Name: "Initech"})
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
	assert.Equal(t, "ACME", first.DisplayName)
	assert.Equal(t, testNow, first.CreatedAt)
	assert.Equal(t, testNow, first.UpdatedAt)
	require.Len(t, first.Contacts, 2)
	assert.Equal(t, int64(1), first.Contacts[0].ID)
	assert.Equal(t, int64(2), first.Contacts[1].ID)

	got, err := repo.GetByID(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	customers, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.CustomerResponse{first, second}, customers)
}

func TestRepositoryUpdateKeepsCreatedAtAndContactIDs(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "records.toml")
	repo := newTestRepository(t, path)

	created, err := repo.Save(context.Background(), 0, domain.CustomerRequest{
		Name:     "ACME",
		Contacts: []domain.ContactRequest{{Name: "Ada"}},
	})
	require.NoError(t, err)

	later := testNow.Add(time.Hour)
	config := viper.New()
	config.Set("records.path", path)
	repo, err = NewRepository(config, fixedClock{now: later})
	require.NoError(t, err)

	customer := domain.CustomerFromResponse(created)
	contacts := customer.Contacts.Add(&domain.Contact{Name: "Grace"})
	edited := customer.From(domain.CustomerPatch{Name: domain.Ptr("ACME Corp"), Contacts: &contacts})

	updated, err := repo.Save(context.Background(), created.ID, edited.ToRequest())
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "ACME Corp", updated.Name)
	assert.Equal(t, testNow, updated.CreatedAt)
	assert.Equal(t, later, updated.UpdatedAt)
	require.Len(t, updated.Contacts, 2)
	assert.Equal(t, created.Contacts[0].ID, updated.Contacts[0].ID)
	assert.Equal(t, int64(2), updated.Contacts[1].ID)
}

func TestRepositorySaveValidates(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "records.toml"))

	_, err := repo.Save(context.Background(), 0, domain.CustomerRequest{
		Email:    "nope",
		Contacts: []domain.ContactRequest{{Primary: true}, {Name: "B", Primary: true}},
	})

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"is required"}, verr.Fields["name"])
	assert.Contains(t, verr.Fields, "email")
	assert.Contains(t, verr.Fields, "contacts[0].name")
	assert.Contains(t, verr.Fields, "contacts")

	customers, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, customers)
}

func TestRepositorySaveRejectsOversizedNote(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "records.toml"))

	_, err := repo.Save(context.Background(), 0, domain.CustomerRequest{
		Name: "ACME",
		Note: strings.Repeat("x", MaxNoteBytes+1),
	})
	require.ErrorIs(t, err, domain.ErrFileTooLarge)
}

func TestRepositoryMissingRecords(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "missing", "records.toml"))

	customers, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, customers)

	_, err = repo.GetByID(context.Background(), 7)
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = repo.Save(context.Background(), 7, domain.CustomerRequest{Name: "Ghost"})
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.ErrorIs(t, repo.Delete(context.Background(), 7), domain.ErrNotFound)
}

func TestRepositoryDelete(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "records.toml"))
	first, err := repo.Save(context.Background(), 0, domain.CustomerRequest{Name: "A"})
	require.NoError(t, err)
	second, err := repo.Save(context.Background(), 0, domain.CustomerRequest{Name: "B"})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(context.Background(), first.ID))

	customers, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.CustomerResponse{second}, customers)

	third, err := repo.Save(context.Background(), 0, domain.CustomerRequest{Name: "C"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), third.ID, "ids are never reused")
}

func TestRepositorySaveCreatesDefaultPathAndEnforcesPermissions(t *testing.T) {
	homeDir := t.TempDir()
	t.Setenv("HOME", homeDir)

	repo, err := NewRepository(viper.New(), nil)
	require.NoError(t, err)

	_, err = repo.Save(context.Background(), 0, domain.CustomerRequest{Name: "ACME"})
	require.NoError(t, err)

	recordsPath := filepath.Join(homeDir, ".viewsync", "records.toml")
	assert.Equal(t, recordsPath, repo.Path())
	info, err := os.Stat(recordsPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestRepositoryReadsPathFromConfigFile(t *testing.T) {
	homeDir := t.TempDir()
	t.Setenv("HOME", homeDir)

	recordsPath := filepath.Join(t.TempDir(), "elsewhere.toml")
	require.NoError(t, os.MkdirAll(filepath.Join(homeDir, ".viewsync"), 0o700))
	require.NoError(t, os.WriteFile(
		filepath.Join(homeDir, ".viewsync", "config.toml"),
		[]byte("[records]\npath = \""+recordsPath+"\"\n"),
		0o600,
	))

	repo, err := NewRepository(viper.New(), nil)
	require.NoError(t, err)
	assert.Equal(t, recordsPath, repo.Path())
}

func TestRepositoryListMalformedTOMLReturnsError(t *testing.T) {
	t.Parallel()

	recordsPath := filepath.Join(t.TempDir(), "records.toml")
	require.NoError(t, os.WriteFile(recordsPath, []byte("customers = ["), 0o600))

	repo := newTestRepository(t, recordsPath)

	_, err := repo.List(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "decode records file")
}

func TestRepositorySaveCanceledContextReturnsContextError(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "records.toml"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.Save(ctx, 0, domain.CustomerRequest{Name: "ACME"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRepositoryConcurrentSavesAcrossInstancesPreserveAllCustomers(t *testing.T) {
	t.Parallel()

	recordsPath := filepath.Join(t.TempDir(), "records.toml")
	repoA := newTestRepository(t, recordsPath)
	repoB := newTestRepository(t, recordsPath)

	const perRepoWrites = 50
	start := make(chan struct{})
	errCh := make(chan error, perRepoWrites*2)
	var wg sync.WaitGroup
	wg.Add(2)

	for _, repo := range []*Repository{repoA, repoB} {
		go func() {
			defer wg.Done()
			<-start
			for i := 0; i < perRepoWrites; i++ {
				_, err := repo.Save(context.Background(), 0, domain.CustomerRequest{Name: "C" + strconv.Itoa(i)})
				errCh <- err
			}
		}()
	}

	close(start)
	wg.Wait()
	close(errCh)

	for err := range errCh {
		require.NoError(t, err)
	}

	customers, err := repoA.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, customers, perRepoWrites*2)

	seen := map[int64]bool{}
	for _, c := range customers {
		assert.False(t, seen[c.ID], "duplicate id %d", c.ID)
		seen[c.ID] = true
	}
}

func TestRepositorySaveSerializedTOMLIncludesVersion(t *testing.T) {
	t.Parallel()

	recordsPath := filepath.Join(t.TempDir(), "records.toml")
	repo := newTestRepository(t, recordsPath)

	_, err := repo.Save(context.Background(), 0, domain.CustomerRequest{Name: "ACME"})
	require.NoError(t, err)

	data, err := os.ReadFile(recordsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "version = 1")
	assert.Contains(t, string(data), "[[customers]]")
}

func TestRepositoryHandWrittenFileDerivesCounters(t *testing.T) {
	t.Parallel()

	recordsPath := filepath.Join(t.TempDir(), "records.toml")
	require.NoError(t, os.WriteFile(recordsPath, []byte(strings.Join([]string{
		"[[customers]]",
		"id = 41",
		"name = 'Hand Written'",
		"created_at = '2026-01-01T00:00:00Z'",
		"updated_at = '2026-01-02T00:00:00Z'",
		"",
		"[[customers.contacts]]",
		"id = 9",
		"name = 'Ada'",
		"primary = true",
		"",
	}, "\n")), 0o600))

	repo := newTestRepository(t, recordsPath)

	existing, err := repo.GetByID(context.Background(), 41)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), existing.UpdatedAt)
	require.Len(t, existing.Contacts, 1)
	assert.True(t, existing.Contacts[0].Primary)

	created, err := repo.Save(context.Background(), 0, domain.CustomerRequest{
		Name:     "Next",
		Contacts: []domain.ContactRequest{{Name: "Grace"}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), created.ID)
	assert.Equal(t, int64(10), created.Contacts[0].ID)
}

func TestRepositoryFutureSchemaVersionReturnsError(t *testing.T) {
	t.Parallel()

	recordsPath := filepath.Join(t.TempDir(), "records.toml")
	require.NoError(t, os.WriteFile(recordsPath, []byte(strings.Join([]string{
		"version = 999",
		"",
		"customers = []",
		"",
	}, "\n")), 0o600))

	repo := newTestRepository(t, recordsPath)

	_, err := repo.List(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "unsupported records schema version")
}
