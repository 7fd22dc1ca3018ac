package usecase

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"telegram-marketplace-bot/internal/domain"
	"telegram-marketplace-bot/internal/domain/model"
	"telegram-marketplace-bot/internal/domain/ports/adapter"
	"telegram-marketplace-bot/internal/infra/i18n"
)

// mockMarketplace is a hand-rolled Marketplace double. Tests set the return
// fields directly and inspect what was submitted.
type mockMarketplace struct {
	mu sync.Mutex

	lookupInfo *model.SellerInfo
	lookupErr  error

	cats    []model.Category
	catsErr error

	submitLotErr     error
	submitProfileErr error

	submittedLot     *model.Lot
	submittedProfile *model.SellerProfile
	categoriesCalls  int
}

func (m *mockMarketplace) LookupUser(_ context.Context, _ int64) (*model.SellerInfo, error) {
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	return m.lookupInfo, nil
}

func (m *mockMarketplace) Categories(_ context.Context) ([]model.Category, error) {
	m.mu.Lock()
	m.categoriesCalls++
	m.mu.Unlock()
	if m.catsErr != nil {
		return nil, m.catsErr
	}
	return m.cats, nil
}

func (m *mockMarketplace) SubmitLot(_ context.Context, lot *model.Lot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submittedLot = lot
	return m.submitLotErr
}

func (m *mockMarketplace) SubmitSellerProfile(_ context.Context, p *model.SellerProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submittedProfile = p
	return m.submitProfileErr
}

type mockGeocoder struct {
	place *model.Place
	err   error
}

func (m *mockGeocoder) Reverse(_ context.Context, _, _ float64) (*model.Place, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.place, nil
}

// mockPhotoStore passes source URIs through untouched, recording the call.
type mockPhotoStore struct {
	uploadedFor int64
	uploaded    []string
}

func (m *mockPhotoStore) Upload(_ context.Context, userID int64, sourceURIs []string) []string {
	m.uploadedFor = userID
	m.uploaded = append([]string(nil), sourceURIs...)
	return m.uploaded
}

// memSessionRepo is a plain map-backed session store for unit tests.
type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[int64]*model.Session
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[int64]*model.Session)}
}

func (m *memSessionRepo) Get(_ context.Context, userID int64) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSessionRepo) Save(_ context.Context, s *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sessions[s.UserID] = &cp
	return nil
}

func (m *memSessionRepo) Delete(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func newTestTranslator() *i18n.Translator {
	tr, err := i18n.NewTranslator(i18n.LocalesFS, "ru")
	if err != nil {
		panic(err)
	}
	return tr
}

// newTestEngine assembles an engine over the mocks with the RU target
// country the production config defaults to.
func newTestEngine(market *mockMarketplace, geo *mockGeocoder, photos *mockPhotoStore) (*Engine, *memSessionRepo, *i18n.Translator) {
	repo := newMemSessionRepo()
	tr := newTestTranslator()
	eng := NewEngine(repo, market, geo, photos, tr, "RU", newTestLogger())
	return eng, repo, tr
}

// Event constructors shared by the flow tests.

func textEvent(userID int64, text string) adapter.Event {
	return adapter.Event{UserID: userID, Username: "seller", FirstName: "Иван", Type: adapter.EventText, Text: text}
}

func commandEvent(userID int64, cmd string) adapter.Event {
	return adapter.Event{UserID: userID, Username: "seller", Type: adapter.EventCommand, Command: cmd}
}

func photoEvent(userID int64, uri string) adapter.Event {
	return adapter.Event{UserID: userID, Username: "seller", Type: adapter.EventPhoto, PhotoURI: uri}
}

func locationEvent(userID int64, lat, lon float64) adapter.Event {
	return adapter.Event{UserID: userID, Type: adapter.EventLocation, Lat: lat, Lon: lon}
}

func callbackEvent(userID int64, data string, messageID int) adapter.Event {
	return adapter.Event{UserID: userID, Type: adapter.EventCallback, Text: data, MessageID: messageID}
}

// testCategories is a two-root tree with children under the first root.
func testCategories() []model.Category {
	electronics := int64(1)
	return []model.Category{
		{ID: 1, Name: "Электроника"},
		{ID: 2, Name: "Одежда"},
		{ID: 3, Name: "Телефоны", Parent: &electronics},
		{ID: 4, Name: "Ноутбуки", Parent: &electronics},
	}
}
