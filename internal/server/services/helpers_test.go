package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/sazinconstruction/adminkeeper/internal/cryptox"
	"github.com/sazinconstruction/adminkeeper/internal/logging"
	"github.com/sazinconstruction/adminkeeper/internal/server/auth"
	"github.com/sazinconstruction/adminkeeper/internal/server/cdn"
	"github.com/sazinconstruction/adminkeeper/internal/server/fields"
	"github.com/sazinconstruction/adminkeeper/internal/server/models"
	"github.com/sazinconstruction/adminkeeper/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type sentMail struct{ to, subject, body string }

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (f *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to, subject, body})
	return nil
}

type testEnv struct {
	kt       cryptox.TransportKey
	ks       cryptox.StorageKey
	pipeline *fields.Pipeline
	sessions *auth.Sessions
	gate     *auth.Gate
	mgr      *repomanager.MemoryManager
	images   *cdn.MemoryStore
	mail     *fakeMailer

	accounts *AccountService
	admins   *AdminService
	resets   *ResetService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	kt, err := cryptox.NewTransportKey("dec-secret")
	require.NoError(t, err)
	ks, err := cryptox.NewStorageKey("enc-secret")
	require.NoError(t, err)

	e := &testEnv{
		kt:       kt,
		ks:       ks,
		pipeline: fields.NewPipeline(kt, ks),
		sessions: auth.NewSessions([]byte("jwt-secret"), kt, 7*24*time.Hour, auth.RotateExpired),
		mgr:      repomanager.NewMemoryManager(),
		images:   cdn.NewMemoryStore("memory://cdn"),
		mail:     &fakeMailer{},
	}
	e.gate = auth.NewGate(e.sessions, e.mgr.Accounts(), auth.NewRevocations(), logging.Nop())
	e.accounts = NewAccountService(e.mgr, e.pipeline, e.sessions, e.gate, e.images,
		AccountOptions{InitialStatus: models.StatusPending, DefaultImageURL: "https://example.com/default.png"}, logging.Nop())
	e.admins = NewAdminService(e.mgr, e.pipeline, e.images, logging.Nop())
	e.resets = NewResetService(e.mgr, e.pipeline, e.mail, ResetOptions{TTL: 10 * time.Minute, MaxAttempts: 5}, logging.Nop())
	return e
}

// wire encrypts plain under the transport key, as a client would.
func (e *testEnv) wire(t *testing.T, plain string) string {
	t.Helper()
	c, err := cryptox.Encrypt(plain, e.kt)
	require.NoError(t, err)
	return c
}

func (e *testEnv) unwire(t *testing.T, c string) string {
	t.Helper()
	p, err := cryptox.Decrypt(c, e.kt)
	require.NoError(t, err)
	return p
}

// seed stores an account the way Register does and returns it.
func (e *testEnv) seed(t *testing.T, name, email, password string, status models.AccountStatus) models.Account {
	t.Helper()
	sealedName, err := cryptox.Encrypt(name, e.ks)
	require.NoError(t, err)
	sealedEmail, err := cryptox.Encrypt(email, e.ks)
	require.NoError(t, err)
	envelope, err := cryptox.SealEnvelope(e.wire(t, password), e.ks)
	require.NoError(t, err)

	acc := models.Account{
		LookupKey:         cryptox.Digest(email).String(),
		EncryptedName:     sealedName,
		EncryptedEmail:    sealedEmail,
		EncryptedPassword: envelope,
		Status:            status,
		ImageURL:          "https://example.com/default.png",
	}
	require.NoError(t, e.mgr.Accounts().Insert(context.Background(), &acc))
	return acc
}

func (e *testEnv) principal(t *testing.T, acc models.Account, name, email string) auth.Principal {
	t.Helper()
	token, _, err := e.sessions.Issue(auth.Identity{UID: acc.ID.Hex(), Username: name, Email: email})
	require.NoError(t, err)
	hdr, err := json.Marshal(auth.Identity{UID: acc.ID.Hex(), Username: name, Email: email})
	require.NoError(t, err)
	res, err := e.gate.Resolve(context.Background(), token, string(hdr))
	require.NoError(t, err)
	return res.Principal
}
