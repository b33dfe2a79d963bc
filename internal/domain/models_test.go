package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:domain_models?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// Enforce FKs so cascades actually execute.
	db.Exec("PRAGMA foreign_keys=ON;")
	return db
}

func TestTableNames(t *testing.T) {
	if (User{}).TableName() != "users" {
		t.Fatalf("User.TableName() = %q; want %q", (User{}).TableName(), "users")
	}
	if (Book{}).TableName() != "books" {
		t.Fatalf("Book.TableName() = %q; want %q", (Book{}).TableName(), "books")
	}
	if (ListItem{}).TableName() != "list_items" {
		t.Fatalf("ListItem.TableName() = %q; want %q", (ListItem{}).TableName(), "list_items")
	}
}

func TestMigrations_Indexes_Constraints_AndCascades(t *testing.T) {
	db := newDomainDB(t)

	if err := db.AutoMigrate(&User{}, &Book{}, &ListItem{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()

	for _, tbl := range []any{&User{}, &Book{}, &ListItem{}} {
		if !m.HasTable(tbl) {
			t.Fatalf("expected table for %T to exist", tbl)
		}
	}
	if !m.HasIndex(&User{}, "ux_users_username") {
		t.Fatalf("expected unique index ux_users_username on users")
	}
	if !m.HasIndex(&ListItem{}, "ux_list_items_owner_book") {
		t.Fatalf("expected unique index ux_list_items_owner_book on list_items")
	}

	now := time.Now().UTC()
	u := &User{ID: "u1", Username: "ann", PasswordHash: "x", CreatedAt: now, UpdatedAt: now}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("insert user: %v", err)
	}
	b := &Book{ID: "b1", Title: "Dune", Author: "Frank Herbert"}
	if err := db.Create(b).Error; err != nil {
		t.Fatalf("insert book: %v", err)
	}

	li := &ListItem{ID: "li1", OwnerID: "u1", BookID: "b1", Rating: UnratedRating}
	if err := db.Create(li).Error; err != nil {
		t.Fatalf("insert list item: %v", err)
	}

	// UNIQUE (owner_id, book_id)
	dup := &ListItem{ID: "li2", OwnerID: "u1", BookID: "b1", Rating: UnratedRating}
	if err := db.Create(dup).Error; err == nil {
		t.Fatalf("expected unique violation on (owner_id, book_id)")
	}

	// CHECK rating range
	bad := &ListItem{ID: "li3", OwnerID: "u1", BookID: "b2", Rating: 9}
	if err := db.Create(bad).Error; err == nil {
		t.Fatalf("expected check violation for rating=9")
	}

	// CASCADE: deleting the user removes their list items
	if err := db.Delete(&User{}, "id = ?", "u1").Error; err != nil {
		t.Fatalf("delete user: %v", err)
	}
	var cnt int64
	if err := db.Model(&ListItem{}).Where("owner_id = ?", "u1").Count(&cnt).Error; err != nil {
		t.Fatalf("count list items: %v", err)
	}
	if cnt != 0 {
		t.Fatalf("expected list items to cascade-delete with their owner, got %d", cnt)
	}
}

func TestJSONShape(t *testing.T) {
	u := User{ID: "u1", Username: "ann", PasswordHash: "secret-hash"}
	b, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("marshal user: %v", err)
	}
	if strings.Contains(string(b), "secret-hash") {
		t.Fatalf("password hash must not be serialized: %s", b)
	}

	li := ListItem{ID: "li1", OwnerID: "u1", BookID: "b1", Rating: 3}
	raw, _ := json.Marshal(li)
	if strings.Contains(string(raw), `"book"`) {
		t.Fatalf("unexpanded list item should omit book: %s", raw)
	}
	expanded := li.WithBook(&Book{ID: "b1", Title: "Dune"})
	if li.Book != nil {
		t.Fatalf("WithBook must not mutate the receiver")
	}
	raw, _ = json.Marshal(expanded)
	for _, want := range []string{`"ownerId":"u1"`, `"bookId":"b1"`, `"rating":3`, `"book":{"id":"b1"`} {
		if !strings.Contains(string(raw), want) {
			t.Fatalf("expanded JSON missing %s: %s", want, raw)
		}
	}
}
