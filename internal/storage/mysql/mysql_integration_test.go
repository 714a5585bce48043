//go:build integration || !unit

package mysql_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"tablebook/internal/domain"
	mysqlrepo "tablebook/internal/storage/mysql"
)

// ---------- small helpers ----------
func pstr(s string) *string     { return &s }
func pint(i int) *int           { return &i }
func pfloat(f float64) *float64 { return &f }
func pi64(i int64) *int64       { return &i }

func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Fatalf("%s not set; export it (e.g. MIGRATIONS_DIR=/path/to/sql)", k)
	}
	return v
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := mustEnv(t, "MIGRATIONS_DIR")

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}

	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)

	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}

	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=tablebook",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "tablebook")

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)
	return db
}

// ---------- the test ----------
func TestRepo_MySQL_UpsertAndQuery(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	// Arrange: seed with valid JSON blobs
	rest := domain.Restaurant{
		ID:         10001,
		Name:       pstr("Taberna Integração"),
		Cuisines:   []string{"portuguese", "seafood"},
		City:       pstr("Lisbon"),
		Country:    pstr("PT"),
		AddressRaw: pstr("Rua Teste 1"),
		Lat:        pfloat(38.72),
		Lon:        pfloat(-9.14),
		PriceLevel: pint(2),
		Rating:     pfloat(4.4),
		Capacity:   pint(40),
		Hours:      []domain.DayHours{{Day: "mon", Open: "12:00", Close: "23:00"}},
		Images:     []string{},
		Active:     true,
		RawJSON:    []byte(`{}`),
	}
	if err := repo.UpsertRestaurant(ctx, rest); err != nil {
		t.Fatalf("UpsertRestaurant: %v", err)
	}

	xs := []domain.Experience{
		{RestaurantID: 10001, SourceID: pstr("tasting-1"), Title: pstr("Tasting Menu"),
			PriceCents: pi64(8500), Active: true, RawJSON: []byte(`{}`)},
		{RestaurantID: 10001, SourceID: pstr("wine-2"), Title: pstr("Wine Pairing"),
			PriceCents: pi64(4500), Active: true, RawJSON: []byte(`{}`)},
	}
	if err := repo.UpsertExperiences(ctx, xs); err != nil {
		t.Fatalf("UpsertExperiences: %v", err)
	}

	// Assert: single read
	rv, err := repo.GetRestaurant(ctx, 10001)
	if err != nil {
		t.Fatalf("GetRestaurant: %v", err)
	}
	if rv.ID != 10001 || rv.Name == nil || *rv.Name != "Taberna Integração" {
		t.Fatalf("unexpected restaurant view: %+v", rv)
	}
	if len(rv.Cuisines) != 2 {
		t.Fatalf("cuisines did not round-trip: %+v", rv.Cuisines)
	}

	// Assert: browse with a city filter
	page, err := repo.ListRestaurants(ctx, domain.RestaurantsQuery{City: pstr("Lisbon"), Limit: 20})
	if err != nil {
		t.Fatalf("ListRestaurants: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("expected one Lisbon result, got %d", len(page.Items))
	}

	got, err := repo.ListExperiences(ctx, 10001)
	if err != nil {
		t.Fatalf("ListExperiences: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 experiences, got %d", len(got))
	}

	// Upsert again with a changed name; row count must not grow.
	rest.Name = pstr("Taberna Renovada")
	if err := repo.UpsertRestaurant(ctx, rest); err != nil {
		t.Fatalf("UpsertRestaurant (again): %v", err)
	}
	rv, err = repo.GetRestaurant(ctx, 10001)
	if err != nil {
		t.Fatalf("GetRestaurant (again): %v", err)
	}
	if rv.Name == nil || *rv.Name != "Taberna Renovada" {
		t.Fatalf("upsert did not update name: %+v", rv)
	}

	if _, err := repo.GetRestaurant(ctx, 99999); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing id should map to ErrNotFound, got %v", err)
	}
}

func TestRepo_MySQL_UsersReservationsMessages(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	if err := repo.UpsertRestaurant(ctx, domain.Restaurant{
		ID: 20002, Name: pstr("Casa da Prova"), Active: true, RawJSON: []byte(`{}`),
	}); err != nil {
		t.Fatalf("UpsertRestaurant: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Second)

	alice := domain.UserProfile{
		ID: "u-alice", Email: "alice@example.com", PasswordHash: "$argon2id$x",
		DisplayName: pstr("Alice"), Dietary: []string{"vegetarian"},
		CreatedAt: now, UpdatedAt: now,
	}
	bob := domain.UserProfile{
		ID: "u-bob", Email: "bob@example.com", PasswordHash: "$argon2id$y",
		CreatedAt: now, UpdatedAt: now,
	}
	for _, u := range []domain.UserProfile{alice, bob} {
		if err := repo.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser %s: %v", u.ID, err)
		}
	}
	if err := repo.CreateUser(ctx, alice); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("duplicate email should map to ErrConflict, got %v", err)
	}

	res := domain.Reservation{
		ID: "r-1", RestaurantID: 20002, UserID: "u-alice", PartySize: 2,
		StartsAt: now.Add(48 * time.Hour), Status: domain.ReservationPending,
		CreatedAt: now, UpdatedAt: now,
	}
	if err := repo.CreateReservation(ctx, res); err != nil {
		t.Fatalf("CreateReservation: %v", err)
	}
	if err := repo.SetReservationStatus(ctx, "r-1", domain.ReservationCancelled); err != nil {
		t.Fatalf("SetReservationStatus: %v", err)
	}
	list, err := repo.ListUserReservations(ctx, "u-alice", 10)
	if err != nil {
		t.Fatalf("ListUserReservations: %v", err)
	}
	if len(list) != 1 || list[0].Status != domain.ReservationCancelled {
		t.Fatalf("unexpected reservations: %+v", list)
	}

	// Waitlist: position is 1-based by join order.
	for i, uid := range []string{"u-alice", "u-bob"} {
		if _, err := repo.JoinWaitlist(ctx, domain.WaitlistEntry{
			RestaurantID: 20002, UserID: uid, PartySize: 2 + i,
			Status: domain.WaitlistWaiting, JoinedAt: now,
		}); err != nil {
			t.Fatalf("JoinWaitlist %s: %v", uid, err)
		}
	}
	_, pos, err := repo.GetWaitlistEntry(ctx, 20002, "u-bob")
	if err != nil {
		t.Fatalf("GetWaitlistEntry: %v", err)
	}
	if pos != 2 {
		t.Fatalf("bob's waitlist position = %d, want 2", pos)
	}

	// Messages: ids are ULIDs; lexical order is send order.
	conv := domain.ConversationID("u-alice", "u-bob")
	msgs := []domain.Message{
		{ID: "01AN4Z07BY79KA1307SR9X4MV1", ConversationID: conv, SenderID: "u-alice",
			RecipientID: "u-bob", Body: "table for two tonight?", SentAt: now},
		{ID: "01AN4Z07BY79KA1307SR9X4MV2", ConversationID: conv, SenderID: "u-bob",
			RecipientID: "u-alice", Body: "yes!", SentAt: now.Add(time.Minute)},
	}
	for _, m := range msgs {
		if err := repo.InsertMessage(ctx, m); err != nil {
			t.Fatalf("InsertMessage: %v", err)
		}
	}
	hist, err := repo.ListConversation(ctx, conv, 50)
	if err != nil {
		t.Fatalf("ListConversation: %v", err)
	}
	if len(hist) != 2 || hist[0].Body != "table for two tonight?" {
		t.Fatalf("unexpected history: %+v", hist)
	}
	// A tight limit keeps the newest message, not the oldest.
	tail, err := repo.ListConversation(ctx, conv, 1)
	if err != nil {
		t.Fatalf("ListConversation (limit 1): %v", err)
	}
	if len(tail) != 1 || tail[0].Body != "yes!" {
		t.Fatalf("limit must trim from the old end: %+v", tail)
	}
	inbox, err := repo.ListConversations(ctx, "u-alice")
	if err != nil {
		t.Fatalf("ListConversations: %v", err)
	}
	if len(inbox) != 1 || inbox[0].LastMessage.Body != "yes!" {
		t.Fatalf("unexpected inbox: %+v", inbox)
	}
	if inbox[0].UnreadCount != 1 {
		t.Fatalf("unread = %d, want 1", inbox[0].UnreadCount)
	}
	if err := repo.MarkConversationRead(ctx, conv, "u-alice"); err != nil {
		t.Fatalf("MarkConversationRead: %v", err)
	}
	inbox, err = repo.ListConversations(ctx, "u-alice")
	if err != nil {
		t.Fatalf("ListConversations (after read): %v", err)
	}
	if inbox[0].UnreadCount != 0 {
		t.Fatalf("unread after mark = %d, want 0", inbox[0].UnreadCount)
	}

	// Photos round-trip through the blob column.
	photo := domain.Photo{
		ID: "p-1", OwnerID: "u-alice", ContentType: "image/png",
		Data: []byte{0x89, 0x50, 0x4E, 0x47}, CreatedAt: now,
	}
	if err := repo.SavePhoto(ctx, photo); err != nil {
		t.Fatalf("SavePhoto: %v", err)
	}
	got, err := repo.GetPhoto(ctx, "p-1")
	if err != nil {
		t.Fatalf("GetPhoto: %v", err)
	}
	if got.ContentType != "image/png" || len(got.Data) != 4 {
		t.Fatalf("photo did not round-trip: %+v", got)
	}
}
