package auth

import (
	"context"
	"errors"
	"testing"
)

func TestUserRepository_CreateAndGet(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)

	user := &User{
		Name:         "Alice Johnson",
		Email:        "alice@example.com",
		Role:         RoleUser,
		PasswordHash: "$argon2id$fake",
	}

	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if user.ID == 0 {
		t.Fatal("Create() should assign a numeric ID")
	}

	got, err := repo.GetByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Email != "alice@example.com" {
		t.Errorf("Email = %q, want %q", got.Email, "alice@example.com")
	}
	if got.Role != RoleUser {
		t.Errorf("Role = %q, want %q", got.Role, RoleUser)
	}

	byEmail, err := repo.GetByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if byEmail.ID != user.ID {
		t.Errorf("GetByEmail ID = %d, want %d", byEmail.ID, user.ID)
	}
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)

	first := &User{Name: "First", Email: "dup@example.com", Role: RoleUser, PasswordHash: "h"}
	if err := repo.Create(context.Background(), first); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	second := &User{Name: "Second", Email: "dup@example.com", Role: RoleUser, PasswordHash: "h"}
	err := repo.Create(context.Background(), second)
	if !errors.Is(err, ErrEmailExists) {
		t.Errorf("Create() error = %v, want ErrEmailExists", err)
	}
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)

	_, err := repo.GetByID(context.Background(), 999)
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetByID() error = %v, want ErrUserNotFound", err)
	}
}

func TestUserRepository_List_Search(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)

	seedTestUser(t, db, "alice@example.com", RoleUser)
	seedTestUser(t, db, "bob@example.com", RoleAdmin)

	all, err := repo.List(context.Background(), "")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("List() returned %d users, want 2", len(all))
	}

	filtered, err := repo.List(context.Background(), "alice")
	if err != nil {
		t.Fatalf("List(alice) error = %v", err)
	}
	if len(filtered) != 1 {
		t.Fatalf("List(alice) returned %d users, want 1", len(filtered))
	}
	if filtered[0].Email != "alice@example.com" {
		t.Errorf("filtered email = %q, want alice@example.com", filtered[0].Email)
	}

	none, err := repo.List(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("List(nobody) error = %v", err)
	}
	if len(none) != 0 {
		t.Errorf("List(nobody) returned %d users, want 0", len(none))
	}
}

func TestUserRepository_Update(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)

	user := seedTestUser(t, db, "before@example.com", RoleUser)

	user.Name = "Renamed"
	user.Email = "after@example.com"
	user.Role = RoleAdmin
	if err := repo.Update(context.Background(), user); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := repo.GetByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != "Renamed" || got.Email != "after@example.com" || got.Role != RoleAdmin {
		t.Errorf("updated user = %+v", got)
	}
}

func TestUserRepository_Update_NotFound(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)

	err := repo.Update(context.Background(), &User{ID: 999, Name: "Ghost", Email: "g@example.com", Role: RoleUser})
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Update() error = %v, want ErrUserNotFound", err)
	}
}

func TestUserRepository_Delete_CascadesTokens(t *testing.T) {
	db := testDB(t)
	userRepo := NewUserRepository(db)

	user := seedTestUser(t, db, "cascade@example.com", RoleUser)
	seedTestToken(t, db, user.ID)

	if err := userRepo.Delete(context.Background(), user.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := userRepo.GetByID(context.Background(), user.ID); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetByID after delete error = %v, want ErrUserNotFound", err)
	}

	var remaining int
	if err := db.QueryRow("SELECT COUNT(*) FROM refresh_tokens WHERE user_id = ?", user.ID).Scan(&remaining); err != nil {
		t.Fatalf("counting tokens: %v", err)
	}
	if remaining != 0 {
		t.Errorf("refresh tokens remaining after user delete = %d, want 0", remaining)
	}
}

func TestUserRepository_Delete_NotFound(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)

	if err := repo.Delete(context.Background(), 999); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Delete() error = %v, want ErrUserNotFound", err)
	}
}

func TestUserRepository_Count(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)

	count, err := repo.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 0 {
		t.Errorf("Count() = %d, want 0", count)
	}

	seedTestUser(t, db, "one@example.com", RoleUser)
	seedTestUser(t, db, "two@example.com", RoleUser)

	count, err = repo.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 2 {
		t.Errorf("Count() = %d, want 2", count)
	}
}
