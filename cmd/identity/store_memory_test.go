package identity

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonseer/church-planner-sub001/cmd/security/password"
)

func TestMemoryStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	_, err := st.FindByIdentity(ctx, "pastor@example.org")
	assert.True(t, IsNotFound(err))

	c, err := st.CreateCredential(ctx, CreateCredentialInput{Identity: "Pastor@Example.org", Secret: testSecret})
	require.NoError(t, err)
	assert.Equal(t, "pastor@example.org", c.IdentityNorm)
	assert.False(t, c.CreatedAt.IsZero())

	got, err := st.FindByIdentity(ctx, "  PASTOR@example.org")
	require.NoError(t, err)
	assert.Equal(t, testSecret, got)

	_, err = st.CreateCredential(ctx, CreateCredentialInput{Identity: "pastor@EXAMPLE.org", Secret: testSecret})
	assert.True(t, IsConflict(err))

	next := password.StoredSecret("$argon2id$v=19$m=64,t=2,p=1$c2FsdA$aGFzaA")
	require.NoError(t, st.UpdateSecret(ctx, "pastor@example.org", next, time.Time{}))
	got, err = st.FindByIdentity(ctx, "pastor@example.org")
	require.NoError(t, err)
	assert.Equal(t, next, got)

	assert.True(t, IsNotFound(st.UpdateSecret(ctx, "ghost@example.org", next, time.Time{})))
	assert.Equal(t, 1, st.Len())
}

func TestMemoryStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	_, err := st.CreateCredential(ctx, CreateCredentialInput{Identity: "usher@example.org", Secret: testSecret})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = st.FindByIdentity(ctx, "usher@example.org")
			_ = st.UpdateSecret(ctx, "usher@example.org", testSecret, time.Time{})
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, st.Len())
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemoryStore().FindByIdentity(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNormalizeIdentity(t *testing.T) {
	assert.Equal(t, "pastor@example.org", NormalizeIdentity("  Pastor@Example.ORG\t"))
	// Fullwidth forms fold under NFKC.
	assert.Equal(t, "abc", NormalizeIdentity("ＡＢＣ"))
}
