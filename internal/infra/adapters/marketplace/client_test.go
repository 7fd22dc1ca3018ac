package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"telegram-marketplace-bot/internal/domain"
	"telegram-marketplace-bot/internal/domain/model"
)

func TestClient_LookupUser(t *testing.T) {
	ctx := context.Background()

	t.Run("registered user", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/user/42/" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			_ = json.NewEncoder(w).Encode(model.SellerInfo{
				Region:    "Москва",
				Address:   "Тверская улица, 1",
				WorkStart: "08:00:00",
				WorkEnd:   "22:00:00",
			})
		}))
		defer srv.Close()

		c := NewClient(srv.URL, time.Second)
		info, err := c.LookupUser(ctx, 42)
		if err != nil {
			t.Fatalf("LookupUser failed: %v", err)
		}
		if info.Region != "Москва" || info.WorkEnd != "22:00:00" {
			t.Errorf("unexpected info %+v", info)
		}
	})

	t.Run("unknown user maps 404 to ErrNotFound", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, time.Second)
		if _, err := c.LookupUser(ctx, 42); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("server error is not ErrNotFound", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, time.Second)
		_, err := c.LookupUser(ctx, 42)
		if err == nil || errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected a plain error, got %v", err)
		}
	})
}

func TestClient_Categories(t *testing.T) {
	parent := int64(1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/category" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode([]model.Category{
			{ID: 1, Name: "Электроника"},
			{ID: 3, Name: "Телефоны", Parent: &parent},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	cats, err := c.Categories(context.Background())
	if err != nil {
		t.Fatalf("Categories failed: %v", err)
	}
	if len(cats) != 2 || cats[1].Parent == nil || *cats[1].Parent != 1 {
		t.Errorf("unexpected categories %+v", cats)
	}
}

func TestClient_SubmitLot(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		var received model.Lot
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPut || r.URL.Path != "/api/create-lot/" {
				t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
			}
			if ct := r.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("unexpected content type %s", ct)
			}
			_ = json.NewDecoder(r.Body).Decode(&received)
			w.WriteHeader(http.StatusCreated)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, time.Second)
		lot := &model.Lot{
			TelegramID:  42,
			Name:        "Продаю велосипед почти новый",
			CategoryIDs: []int64{3},
			ChatURL:     "https://t.me/seller",
			Price:       "1500",
		}
		if err := c.SubmitLot(context.Background(), lot); err != nil {
			t.Fatalf("SubmitLot failed: %v", err)
		}
		if received.TelegramID != 42 || received.Price != "1500" {
			t.Errorf("unexpected payload %+v", received)
		}
	})

	t.Run("non-201 is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad lot", http.StatusBadRequest)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, time.Second)
		if err := c.SubmitLot(context.Background(), &model.Lot{}); err == nil {
			t.Fatal("expected an error")
		}
	})
}

func TestClient_SubmitSellerProfile(t *testing.T) {
	var received model.SellerProfile
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/create-user/" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	profile := &model.SellerProfile{
		TelegramID:  42,
		Coordinates: model.Coordinates{Lat: "55.7558", Lon: "37.6173"},
		Region:      "Москва",
		Address:     "Тверская улица, 1",
		WorkStart:   "08:00:00",
		WorkEnd:     "22:00:00",
	}
	if err := c.SubmitSellerProfile(context.Background(), profile); err != nil {
		t.Fatalf("SubmitSellerProfile failed: %v", err)
	}
	if received.Coordinates.Lat != "55.7558" || received.WorkStart != "08:00:00" {
		t.Errorf("unexpected payload %+v", received)
	}
}
