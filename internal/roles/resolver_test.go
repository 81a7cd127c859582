package roles

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/vaweTech/authgate/internal/identity"
	"github.com/vaweTech/authgate/internal/store/core"
)

type fakeStore struct {
	user *core.User
	err  error
}

func (f *fakeStore) GetUserByID(ctx context.Context, uid string) (*core.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func (f *fakeStore) Close(ctx context.Context) error { return nil }

type fakeDocs struct {
	role  string
	ok    bool
	calls int
}

func (f *fakeDocs) FetchRole(ctx context.Context, uid string) (string, bool) {
	f.calls++
	return f.role, f.ok
}

var decoderErr = identity.E(identity.KindDecoder, identity.CodeDecoderFailed, "store", errors.New("tls handshake"))

func transientNetworkErr() error {
	// Wrap a real syscall errno so ClassifyTransport sees network kind.
	return &wrapErr{msg: "dial tcp: connect", err: syscall.ECONNREFUSED}
}

type wrapErr struct {
	msg string
	err error
}

func (w *wrapErr) Error() string { return w.msg + ": " + w.err.Error() }
func (w *wrapErr) Unwrap() error { return w.err }

func TestResolvePrimaryIsAuthoritative(t *testing.T) {
	store := &fakeStore{user: &core.User{ID: "u1", Role: "user", CreatedAt: time.Now()}}
	docs := &fakeDocs{role: "admin", ok: true}
	r := &Resolver{
		Store: store, Docs: docs,
		Admins:     identity.ParseAllowlist("listed@example.com"),
		Production: true,
	}

	// Even an allow-listed email gets the stored role when the store answers.
	role, err := r.Resolve(context.Background(), "u1", "listed@example.com")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if role != RoleUser {
		t.Fatalf("role = %q, want user", role)
	}
	if docs.calls != 0 {
		t.Fatal("fallback must not run when the primary store answers")
	}
}

func TestResolveNotFoundIsTerminal(t *testing.T) {
	store := &fakeStore{err: core.ErrNotFound}
	docs := &fakeDocs{role: "admin", ok: true}
	r := &Resolver{
		Store: store, Docs: docs,
		Admins: identity.ParseAllowlist("listed@example.com"),
	}

	_, err := r.Resolve(context.Background(), "u1", "listed@example.com")
	if !identity.IsKind(err, identity.KindNotFound) {
		t.Fatalf("kind = %v, want not_found", identity.KindOf(err))
	}
	if docs.calls != 0 {
		t.Fatal("not-found must never open the fallback")
	}
}

func TestResolveTransientFailureUsesDocumentFallback(t *testing.T) {
	store := &fakeStore{err: decoderErr}
	docs := &fakeDocs{role: "superadmin", ok: true}
	r := &Resolver{Store: store, Docs: docs, Production: true}

	role, err := r.Resolve(context.Background(), "u1", "x@example.com")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if role != RoleSuperadmin {
		t.Fatalf("role = %q, want superadmin", role)
	}
}

func TestResolveDegradedAdminMatrix(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		listed  bool
		prod    bool
		granted bool
	}{
		{"decoder, listed, prod", decoderErr, true, true, true},
		{"decoder, unlisted, prod", decoderErr, false, true, false},
		{"decoder, unlisted, dev", decoderErr, false, false, true},
		{"network, listed, prod", transientNetworkErr(), true, true, true},
		{"network, unlisted, prod", transientNetworkErr(), false, true, false},
		{"network, unlisted, dev", transientNetworkErr(), false, false, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			email := "someone@example.com"
			admins := identity.Allowlist{}
			if tc.listed {
				admins = identity.ParseAllowlist(email)
			}
			r := &Resolver{
				Store:      &fakeStore{err: tc.err},
				Docs:       &fakeDocs{}, // REST tier fails
				Admins:     admins,
				Production: tc.prod,
			}
			role, err := r.Resolve(context.Background(), "u1", email)
			if tc.granted {
				if err != nil || role != RoleAdmin {
					t.Fatalf("want degraded admin, got role=%q err=%v", role, err)
				}
			} else {
				if err == nil {
					t.Fatalf("want denial, got role=%q", role)
				}
			}
		})
	}
}

func TestResolveSuperadminNoNetworkDegradedBranch(t *testing.T) {
	email := "root@example.com"
	supers := identity.ParseAllowlist(email)

	t.Run("decoder failure, listed", func(t *testing.T) {
		r := &Resolver{
			Store: &fakeStore{err: decoderErr}, Docs: &fakeDocs{},
			Superadmins: supers, Production: true,
		}
		role, err := r.ResolveSuperadmin(context.Background(), "u1", email)
		if err != nil || role != RoleSuperadmin {
			t.Fatalf("want degraded superadmin, got role=%q err=%v", role, err)
		}
	})

	t.Run("network failure, listed", func(t *testing.T) {
		r := &Resolver{
			Store: &fakeStore{err: transientNetworkErr()}, Docs: &fakeDocs{},
			Superadmins: supers, Production: true,
		}
		if _, err := r.ResolveSuperadmin(context.Background(), "u1", email); err == nil {
			t.Fatal("network failures must not grant degraded superadmin")
		}
	})

	t.Run("decoder failure, unlisted, dev", func(t *testing.T) {
		r := &Resolver{
			Store: &fakeStore{err: decoderErr}, Docs: &fakeDocs{},
			Superadmins: identity.Allowlist{}, Production: false,
		}
		role, err := r.ResolveSuperadmin(context.Background(), "u1", "dev@example.com")
		if err != nil || role != RoleSuperadmin {
			t.Fatalf("want degraded superadmin outside production, got role=%q err=%v", role, err)
		}
	})
}

func TestResolveUnknownStoreErrorIsTerminal(t *testing.T) {
	r := &Resolver{
		Store:  &fakeStore{err: errors.New("constraint violation")},
		Docs:   &fakeDocs{role: "admin", ok: true},
		Admins: identity.ParseAllowlist("x@example.com"),
	}
	if _, err := r.Resolve(context.Background(), "u1", "x@example.com"); err == nil {
		t.Fatal("unclassified store errors must be terminal")
	}
}

func TestRoleHelpers(t *testing.T) {
	if !RoleSuperadmin.AtLeast(RoleAdmin) || !RoleAdmin.AtLeast(RoleUser) {
		t.Fatal("rank ordering broken")
	}
	if RoleUser.AtLeast(RoleAdmin) {
		t.Fatal("user must not outrank admin")
	}
	if Parse("admin") != RoleAdmin || Parse("superadmin") != RoleSuperadmin {
		t.Fatal("known roles must parse")
	}
	if Parse("janitor") != RoleUser || Parse("") != RoleUser {
		t.Fatal("unknown roles default to user")
	}
}
