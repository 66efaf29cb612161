package sqlite

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/inkpad-dev/inkpad/internal/domain/port/driven"
)

// ErrEncryptionKeyNotSet is returned by encrypted-value writes when the repo
// was constructed without an encryption key.
var ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set INKPAD_SECRET_KEY")

// Compile-time interface satisfaction check.
var _ driven.SettingsPersister = (*SettingsRepo)(nil)

// querier is the subset of *sql.DB / *sql.Tx the repo needs, so the same
// methods serve both direct access and Batch transactions.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SettingsRepo is the SQLite implementation of the SettingsPersister port.
// Values live in a single (path, name) keyed table; encrypted values are
// sealed with AES-256-GCM before write and opened after read.
type SettingsRepo struct {
	db  *DB
	key []byte // 32-byte AES-256 key; nil disables encrypted values.

	// read/write override the DB connections inside a Batch transaction.
	read  querier
	write querier
}

// NewSettingsRepo creates a SettingsRepo. key must be 32 bytes for
// AES-256-GCM, or nil to disable encrypted values (encrypted reads then
// return "" and encrypted writes fail with ErrEncryptionKeyNotSet).
func NewSettingsRepo(db *DB, key []byte) *SettingsRepo {
	return &SettingsRepo{db: db, key: key}
}

func (r *SettingsRepo) reader() querier {
	if r.read != nil {
		return r.read
	}
	return r.db.Reader
}

func (r *SettingsRepo) writer() querier {
	if r.write != nil {
		return r.write
	}
	return r.db.Writer
}

func (r *SettingsRepo) getRaw(ctx context.Context, path, name string) (value string, encrypted bool, found bool, err error) {
	const query = `SELECT value, encrypted FROM settings WHERE path = ? AND name = ?`
	var enc int
	err = r.reader().QueryRowContext(ctx, query, path, name).Scan(&value, &enc)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, false, nil
	}
	if err != nil {
		return "", false, false, fmt.Errorf("get setting %s/%s: %w", path, name, err)
	}
	return value, enc != 0, true, nil
}

func (r *SettingsRepo) setRaw(ctx context.Context, path, name, value string, encrypted bool) error {
	const query = `
		INSERT INTO settings (path, name, value, encrypted, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(path, name) DO UPDATE SET
			value = excluded.value,
			encrypted = excluded.encrypted,
			updated_at = excluded.updated_at
	`
	enc := 0
	if encrypted {
		enc = 1
	}
	if _, err := r.writer().ExecContext(ctx, query, path, name, value, enc); err != nil {
		return fmt.Errorf("set setting %s/%s: %w", path, name, err)
	}
	return nil
}

// GetString returns the string stored at path/name, or def when absent.
func (r *SettingsRepo) GetString(ctx context.Context, path, name, def string) (string, error) {
	value, _, found, err := r.getRaw(ctx, path, name)
	if err != nil {
		return def, err
	}
	if !found {
		return def, nil
	}
	return value, nil
}

// SetString stores a string at path/name.
func (r *SettingsRepo) SetString(ctx context.Context, path, name, value string) error {
	return r.setRaw(ctx, path, name, value, false)
}

// GetBool returns the bool at path/name; absent or unparseable reads as def.
func (r *SettingsRepo) GetBool(ctx context.Context, path, name string, def bool) (bool, error) {
	value, _, found, err := r.getRaw(ctx, path, name)
	if err != nil {
		return def, err
	}
	if !found {
		return def, nil
	}
	parsed, perr := strconv.ParseBool(value)
	if perr != nil {
		slog.Warn("unparseable bool setting, using default", "path", path, "name", name, "value", value)
		return def, nil
	}
	return parsed, nil
}

// SetBool stores a bool at path/name.
func (r *SettingsRepo) SetBool(ctx context.Context, path, name string, value bool) error {
	return r.setRaw(ctx, path, name, strconv.FormatBool(value), false)
}

// GetInt returns the int at path/name; absent or unparseable reads as def.
func (r *SettingsRepo) GetInt(ctx context.Context, path, name string, def int) (int, error) {
	value, _, found, err := r.getRaw(ctx, path, name)
	if err != nil {
		return def, err
	}
	if !found {
		return def, nil
	}
	parsed, perr := strconv.Atoi(value)
	if perr != nil {
		slog.Warn("unparseable int setting, using default", "path", path, "name", name, "value", value)
		return def, nil
	}
	return parsed, nil
}

// SetInt stores an int at path/name.
func (r *SettingsRepo) SetInt(ctx context.Context, path, name string, value int) error {
	return r.setRaw(ctx, path, name, strconv.Itoa(value), false)
}

// GetTime returns the timestamp at path/name; absent or unparseable reads as def.
func (r *SettingsRepo) GetTime(ctx context.Context, path, name string, def time.Time) (time.Time, error) {
	value, _, found, err := r.getRaw(ctx, path, name)
	if err != nil {
		return def, err
	}
	if !found {
		return def, nil
	}
	parsed, perr := time.Parse(time.RFC3339Nano, value)
	if perr != nil {
		slog.Warn("unparseable time setting, using default", "path", path, "name", name, "value", value)
		return def, nil
	}
	return parsed, nil
}

// SetTime stores a timestamp at path/name in RFC 3339 form.
func (r *SettingsRepo) SetTime(ctx context.Context, path, name string, value time.Time) error {
	return r.setRaw(ctx, path, name, value.UTC().Format(time.RFC3339Nano), false)
}

// GetBytes returns the byte array at path/name, or nil when absent.
func (r *SettingsRepo) GetBytes(ctx context.Context, path, name string) ([]byte, error) {
	value, _, found, err := r.getRaw(ctx, path, name)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	data, derr := base64.StdEncoding.DecodeString(value)
	if derr != nil {
		slog.Warn("undecodable byte setting, reading as absent", "path", path, "name", name)
		return nil, nil
	}
	return data, nil
}

// SetBytes stores a byte array at path/name; nil removes the value.
func (r *SettingsRepo) SetBytes(ctx context.Context, path, name string, value []byte) error {
	if value == nil {
		return r.Unset(ctx, path, name)
	}
	return r.setRaw(ctx, path, name, base64.StdEncoding.EncodeToString(value), false)
}

// GetEncryptedString returns the decrypted string at path/name. Absent,
// undecryptable, or key-less reads all return "" so a stale secret never
// fails a settings load.
func (r *SettingsRepo) GetEncryptedString(ctx context.Context, path, name string) (string, error) {
	value, encrypted, found, err := r.getRaw(ctx, path, name)
	if err != nil {
		return "", err
	}
	if !found {
		return "", nil
	}
	if !encrypted {
		return value, nil
	}
	if r.key == nil {
		return "", nil
	}
	plaintext, derr := r.decrypt(value)
	if derr != nil {
		slog.Warn("could not decrypt setting, reading as absent", "path", path, "name", name, "error", derr)
		return "", nil
	}
	return plaintext, nil
}

// SetEncryptedString seals value with AES-256-GCM and stores it at path/name.
func (r *SettingsRepo) SetEncryptedString(ctx context.Context, path, name, value string) error {
	sealed, err := r.encrypt(value)
	if err != nil {
		return err
	}
	return r.setRaw(ctx, path, name, sealed, true)
}

// Unset removes a single value; removing an absent value is a no-op.
func (r *SettingsRepo) Unset(ctx context.Context, path, name string) error {
	const query = `DELETE FROM settings WHERE path = ? AND name = ?`
	if _, err := r.writer().ExecContext(ctx, query, path, name); err != nil {
		return fmt.Errorf("unset setting %s/%s: %w", path, name, err)
	}
	return nil
}

// Names enumerates the value names stored directly at path.
func (r *SettingsRepo) Names(ctx context.Context, path string) ([]string, error) {
	const query = `SELECT name FROM settings WHERE path = ? ORDER BY name`
	rows, err := r.reader().QueryContext(ctx, query, path)
	if err != nil {
		return nil, fmt.Errorf("list names at %s: %w", path, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan name at %s: %w", path, err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate names at %s: %w", path, err)
	}
	return names, nil
}

// Children enumerates the immediate child tree names under path.
func (r *SettingsRepo) Children(ctx context.Context, path string) ([]string, error) {
	prefix := path + "/"
	const query = `SELECT DISTINCT path FROM settings WHERE path LIKE ? ESCAPE '\' ORDER BY path`
	rows, err := r.reader().QueryContext(ctx, query, likePattern(prefix))
	if err != nil {
		return nil, fmt.Errorf("list children of %s: %w", path, err)
	}
	defer rows.Close()

	seen := make(map[string]bool)
	var children []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan child of %s: %w", path, err)
		}
		rest := strings.TrimPrefix(p, prefix)
		child, _, _ := strings.Cut(rest, "/")
		if child != "" && !seen[child] {
			seen[child] = true
			children = append(children, child)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate children of %s: %w", path, err)
	}
	return children, nil
}

// HasSubtree reports whether anything is stored at or under path.
func (r *SettingsRepo) HasSubtree(ctx context.Context, path string) (bool, error) {
	const query = `SELECT 1 FROM settings WHERE path = ? OR path LIKE ? ESCAPE '\' LIMIT 1`
	var one int
	err := r.reader().QueryRowContext(ctx, query, path, likePattern(path+"/")).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("probe subtree %s: %w", path, err)
	}
	return true, nil
}

// UnsetSubtree atomically removes every value at or under path.
func (r *SettingsRepo) UnsetSubtree(ctx context.Context, path string) error {
	const query = `DELETE FROM settings WHERE path = ? OR path LIKE ? ESCAPE '\'`
	if _, err := r.writer().ExecContext(ctx, query, path, likePattern(path+"/")); err != nil {
		return fmt.Errorf("unset subtree %s: %w", path, err)
	}
	return nil
}

// Batch runs fn against a transaction-backed persister; all writes commit as
// one unit, and reads inside fn observe the batch's own writes.
func (r *SettingsRepo) Batch(ctx context.Context, fn func(driven.SettingsPersister) error) error {
	db, ok := r.writer().(*sql.DB)
	if !ok {
		// Already inside a batch; reuse the current transaction.
		return fn(r)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin settings batch: %w", err)
	}

	batch := &SettingsRepo{db: r.db, key: r.key, read: tx, write: tx}
	if err := fn(batch); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.Error("settings batch rollback failed", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit settings batch: %w", err)
	}
	return nil
}

// likePattern escapes LIKE metacharacters in prefix and appends %.
func likePattern(prefix string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(prefix) + "%"
}

// encrypt seals plaintext with AES-256-GCM and returns base64(nonce || ciphertext).
func (r *SettingsRepo) encrypt(plaintext string) (string, error) {
	if r.key == nil {
		return "", ErrEncryptionKeyNotSet
	}

	block, err := aes.NewCipher(r.key)
	if err != nil {
		return "", fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("cipher.NewGCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// decrypt opens a base64-encoded AES-256-GCM ciphertext.
func (r *SettingsRepo) decrypt(encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}

	block, err := aes.NewCipher(r.key)
	if err != nil {
		return "", fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("cipher.NewGCM: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("gcm.Open: %w", err)
	}

	return string(plaintext), nil
}
