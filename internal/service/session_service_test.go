package service

import (
	"context"
	"testing"
	"time"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/domain"
	"github.com/google/uuid"
)

func subscriptionFor(userID uuid.UUID, status domain.SubscriptionStatus, end time.Time) *domain.CurrentSubscription {
	return &domain.CurrentSubscription{
		Subscription: domain.Subscription{ID: uuid.New(), UserID: userID, Status: status, StartDate: end.AddDate(0, -1, 0), EndDate: &end},
		Plan:         domain.Plan{ID: uuid.New(), Name: "Básico"},
	}
}

func newSessionFixture(user *domain.User) (*SessionService, *fakeSubRepo, *fakeUserCache) {
	subs := newFakeSubRepo()
	cache := newFakeUserCache()
	svc := NewSessionService(newFakeUserRepo(user), subs, cache)
	svc.now = fixedClock
	return svc, subs, cache
}

func TestSessionValidate(t *testing.T) {
	future := testNow.Add(72 * time.Hour)
	past := testNow.Add(-time.Hour)

	tests := []struct {
		name         string
		active       bool
		sub          func(uuid.UUID) *domain.CurrentSubscription
		allowPending bool
		wantCode     domain.ErrorCode
	}{
		{"active", true, func(id uuid.UUID) *domain.CurrentSubscription { return subscriptionFor(id, domain.SubscriptionActive, future) }, false, ""},
		{"deactivated", false, func(id uuid.UUID) *domain.CurrentSubscription { return subscriptionFor(id, domain.SubscriptionActive, future) }, false, domain.CodeAccountDeactivated},
		{"no subscription", true, func(uuid.UUID) *domain.CurrentSubscription { return nil }, true, domain.CodeSubscriptionRequired},
		{"pending rejected", true, func(id uuid.UUID) *domain.CurrentSubscription { return subscriptionFor(id, domain.SubscriptionPending, future) }, false, domain.CodeSubscriptionRequired},
		{"pending allowed", true, func(id uuid.UUID) *domain.CurrentSubscription { return subscriptionFor(id, domain.SubscriptionPending, future) }, true, ""},
		{"ended", true, func(id uuid.UUID) *domain.CurrentSubscription { return subscriptionFor(id, domain.SubscriptionActive, past) }, true, domain.CodeSubscriptionExpired},
		{"canceled", true, func(id uuid.UUID) *domain.CurrentSubscription { return subscriptionFor(id, domain.SubscriptionCanceled, future) }, false, domain.CodeSubscriptionRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := &domain.User{ID: uuid.New(), Email: "a@b.com", Role: domain.RoleOwner, IsActive: tt.active}
			svc, subs, _ := newSessionFixture(user)
			if sub := tt.sub(user.ID); sub != nil {
				subs.current[user.ID] = sub
			}

			sess, err := svc.Validate(context.Background(), user.ID, tt.allowPending)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if sess.User.ID != user.ID {
					t.Fatalf("session user = %s", sess.User.ID)
				}
				return
			}
			if codeOf(err) != tt.wantCode {
				t.Fatalf("error = %v, want %s", err, tt.wantCode)
			}
		})
	}
}

func TestSessionValidateUnknownUser(t *testing.T) {
	svc, _, _ := newSessionFixture(&domain.User{ID: uuid.New()})
	_, err := svc.Validate(context.Background(), uuid.New(), false)
	if codeOf(err) != domain.CodeUserNotFound {
		t.Fatalf("error = %v, want USER_NOT_FOUND", err)
	}
}

func TestSessionInvitedUserUsesInviterSubscription(t *testing.T) {
	owner := uuid.New()
	user := &domain.User{ID: uuid.New(), Role: domain.RoleBroker, IsActive: true, CreatedBy: &owner}
	svc, subs, cache := newSessionFixture(user)
	subs.current[owner] = subscriptionFor(owner, domain.SubscriptionActive, testNow.Add(time.Hour))

	sess, err := svc.Validate(context.Background(), user.ID, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.Subscription.UserID != owner {
		t.Fatal("expected the inviter's subscription")
	}
	if _, ok := cache.states[user.ID]; !ok {
		t.Fatal("session should be cached")
	}
}

func TestSessionReadsThroughCache(t *testing.T) {
	user := &domain.User{ID: uuid.New(), Role: domain.RoleOwner, IsActive: true}
	svc, _, cache := newSessionFixture(&domain.User{ID: uuid.New()})
	cache.SetUserState(context.Background(), user, subscriptionFor(user.ID, domain.SubscriptionActive, testNow.Add(time.Hour)))

	// the repository does not know this user, so only the cache can answer
	if _, err := svc.Validate(context.Background(), user.ID, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
