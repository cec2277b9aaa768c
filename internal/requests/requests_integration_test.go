package requests_test

import (
	"context"
	"errors"
	"testing"

	"github.com/acgh213/pointstracker/internal/pagination"
	"github.com/acgh213/pointstracker/internal/requests"
	"github.com/acgh213/pointstracker/internal/testutil"
)

func TestResolve_ApproveAndList(t *testing.T) {
	pool := testutil.SetupDB(t)
	ctx := context.Background()
	repo := requests.NewRepository(pool)

	memberID := testutil.CreateMember(t, pool, "Approve Member")
	categoryID := testutil.CreateCategory(t, pool, "Chapter Meeting", 10)
	reqID := testutil.CreateRequest(t, pool, memberID, &categoryID, 10)

	points := 8
	err := repo.Resolve(ctx, reqID, requests.ResolveInput{
		Status:         requests.StatusApproved,
		ApprovedPoints: &points,
		AdminNote:      "<i>partial</i> credit",
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	page := pagination.Page{Number: 1, PerPage: pagination.MaxPerPage}
	list, err := repo.ListByStatus(ctx, requests.StatusApproved, &page)
	if err != nil {
		t.Fatalf("ListByStatus: %v", err)
	}

	var found *requests.Request
	for i := range list {
		if list[i].ID == reqID {
			found = &list[i]
		}
	}
	if found == nil {
		t.Fatal("approved request not listed")
	}
	if found.ApprovedPoints == nil || *found.ApprovedPoints != 8 {
		t.Errorf("approved points = %v", found.ApprovedPoints)
	}
	if found.AdminNote == nil || *found.AdminNote != "partial credit" {
		t.Errorf("admin note = %v", found.AdminNote)
	}
	if found.ResolvedAt == nil {
		t.Error("resolved_at not set")
	}
	if found.CategoryName == nil || *found.CategoryName == "" {
		t.Error("category name not joined")
	}
	if page.Total < 1 {
		t.Errorf("page total = %d", page.Total)
	}
}

func TestResolve_DenyDropsPoints(t *testing.T) {
	pool := testutil.SetupDB(t)
	ctx := context.Background()
	repo := requests.NewRepository(pool)

	memberID := testutil.CreateMember(t, pool, "Deny Member")
	reqID := testutil.CreateRequest(t, pool, memberID, nil, 4)

	points := 4
	if err := repo.Resolve(ctx, reqID, requests.ResolveInput{Status: requests.StatusDenied, ApprovedPoints: &points}); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	var status string
	var approved *int
	err := pool.QueryRow(ctx, `SELECT status, approved_points FROM requests WHERE id = $1`, reqID).Scan(&status, &approved)
	if err != nil {
		t.Fatal(err)
	}
	if status != requests.StatusDenied || approved != nil {
		t.Errorf("status=%q approved=%v", status, approved)
	}
}

func TestResolve_NotFound(t *testing.T) {
	pool := testutil.SetupDB(t)
	repo := requests.NewRepository(pool)

	err := repo.Resolve(context.Background(), -1, requests.ResolveInput{Status: requests.StatusDenied})
	if !errors.Is(err, requests.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListByStatus_Pending(t *testing.T) {
	pool := testutil.SetupDB(t)
	ctx := context.Background()
	repo := requests.NewRepository(pool)

	memberID := testutil.CreateMember(t, pool, "Pending Member")
	reqID := testutil.CreateRequest(t, pool, memberID, nil, 3)

	page := pagination.Page{Number: 1, PerPage: pagination.MaxPerPage}
	list, err := repo.ListByStatus(ctx, requests.StatusPending, &page)
	if err != nil {
		t.Fatalf("ListByStatus: %v", err)
	}
	for _, r := range list {
		if r.Status != requests.StatusPending {
			t.Fatalf("non-pending request %d listed", r.ID)
		}
	}
	found := false
	for _, r := range list {
		if r.ID == reqID {
			found = true
			if r.MemberName == "" {
				t.Error("member name not joined")
			}
		}
	}
	if !found && page.Total <= pagination.MaxPerPage {
		t.Fatal("pending request not listed")
	}
}
