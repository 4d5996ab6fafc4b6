package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/audiosessions/backend/internal/model/catalog"
)

func TestHashPasswordCommand(t *testing.T) {
	cmd := newHashPasswordCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--cost", "4", "Julio25"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute err: %v", err)
	}

	hash := strings.TrimSpace(out.String())
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("Julio25")); err != nil {
		t.Fatalf("printed hash does not match: %v", err)
	}
}

func TestHashPasswordFromStdin(t *testing.T) {
	cmd := newHashPasswordCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader("from-stdin\n"))
	cmd.SetArgs([]string{"--cost", "4"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute err: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(strings.TrimSpace(out.String())), []byte("from-stdin")); err != nil {
		t.Fatalf("printed hash does not match: %v", err)
	}
}

func TestHashPasswordRejectsInvalidInput(t *testing.T) {
	for _, password := range []string{"", strings.Repeat("x", 73)} {
		if _, err := hashPassword(password, bcrypt.MinCost); err == nil {
			t.Fatalf("expected error for %d byte password", len(password))
		}
	}
}

func TestCatalogCommand(t *testing.T) {
	cmd := newCatalogCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--genre", "house"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute err: %v", err)
	}

	var listings []catalogListing
	if err := json.Unmarshal(out.Bytes(), &listings); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if len(listings) != 1 || listings[0].Genre != "house" || listings[0].Count != 3 {
		t.Fatalf("unexpected listings %+v", listings)
	}
}

func TestBuildListings(t *testing.T) {
	store := catalog.NewMemoryStore(catalog.Seed())

	listings, err := buildListings(store, "")
	if err != nil {
		t.Fatalf("buildListings err: %v", err)
	}
	if len(listings) != 5 {
		t.Fatalf("expected 5 genres, got %d", len(listings))
	}
	last := listings[len(listings)-1]
	if last.Genre != "private" || !last.RequiresAuth {
		t.Fatalf("unexpected private listing %+v", last)
	}

	if _, err := buildListings(store, "jazz"); err == nil {
		t.Fatal("expected error for unknown genre")
	}
}
