package services

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

var (
	ErrWizardSessionNotFound = errors.New("wizard session not found or expired")
	ErrUnknownWizardStep     = errors.New("unknown wizard step")
	ErrInvalidWizardOption   = errors.New("answer is not one of the step's options")
	ErrWizardIncomplete      = errors.New("wizard steps are not all answered")
)

// WizardStep is one screen of the linear qualification flow. Steps never
// branch; the option chosen only becomes part of the collected answers.
type WizardStep struct {
	Title    string   `json:"title"`
	Subtitle string   `json:"subtitle"`
	Question string   `json:"question,omitempty"`
	Options  []string `json:"options,omitempty"`
	Key      string   `json:"key,omitempty"`
	IsForm   bool     `json:"isForm,omitempty"`
}

var wizardSteps = []WizardStep{
	{
		Title:    "AI Ajanınız Sizi Tanısın",
		Subtitle: "Sadece birkaç soruyla durumunuza en uygun yol haritasını çizeceğim.",
		Question: "Ana gelir kaynağınız hangisi?",
		Options: []string{
			"Sosyal Medya / İçerik Üretimi (YouTube, Patreon, vb.)",
			"Freelance / Yazılım / Tasarım (Upwork, Direkt Müşteri, vb.)",
			"E-ticaret / Dijital Ürün (Gumroad, Etsy, vb.)",
			"Diğer / Emin Değilim",
		},
		Key: "incomeSource",
	},
	{
		Title:    "Mevcut Durum Analizi",
		Subtitle: "Şirket yapınızı anlayarak en doğru yönlendirmeyi yapacağım.",
		Question: "Türkiye'de bir şirketiniz var mı?",
		Options: []string{
			"Evet, Şahıs Şirketim var.",
			"Evet, Limited veya A.Ş. var.",
			"Hayır, henüz yok (Bireysel olarak kazanıyorum).",
		},
		Key: "companyStatus",
	},
	{
		Title:    "Hesap Oluştur",
		Subtitle: "Panelinize erişmek ve verilerinizi güvenle saklamak için temel bilgilerinizi girin.",
		Question: "Kullanıcı ve Dilekçe Bilgileri",
		IsForm:   true,
	},
}

// WizardSession accumulates the answers of one qualification run. Sessions are
// anonymous; the account is only created at the completion handoff.
type WizardSession struct {
	ID      string            `json:"id"`
	Answers map[string]string `json:"answers"`
}

func (s *WizardSession) snapshot() *WizardSession {
	answers := make(map[string]string, len(s.Answers))
	for k, v := range s.Answers {
		answers[k] = v
	}
	return &WizardSession{ID: s.ID, Answers: answers}
}

// WizardService manages qualification sessions in an expiring in-memory store.
// The cache only guards its own map, not the sessions it holds; the wizard
// endpoints are unauthenticated, so session mutation is serialized here and
// callers always get detached copies.
type WizardService struct {
	mu       sync.Mutex
	sessions *cache.Cache
	ttl      time.Duration
}

func NewWizardService(sessionCache *cache.Cache, ttl time.Duration) *WizardService {
	return &WizardService{sessions: sessionCache, ttl: ttl}
}

// Steps returns the fixed step sequence for clients to render.
func (s *WizardService) Steps() []WizardStep {
	return wizardSteps
}

// Start opens a new qualification session.
func (s *WizardService) Start() *WizardSession {
	session := &WizardSession{
		ID:      uuid.NewString(),
		Answers: make(map[string]string),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions.Set(sessionKey(session.ID), session, s.ttl)
	return session.snapshot()
}

// lookup returns the stored session. Callers must hold s.mu.
func (s *WizardService) lookup(id string) (*WizardSession, error) {
	v, found := s.sessions.Get(sessionKey(id))
	if !found {
		return nil, ErrWizardSessionNotFound
	}
	session, ok := v.(*WizardSession)
	if !ok {
		return nil, ErrWizardSessionNotFound
	}
	return session, nil
}

// Session fetches an active session by id.
func (s *WizardService) Session(id string) (*WizardSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return session.snapshot(), nil
}

// Answer records the chosen option for a question step. Re-answering a step
// overwrites the previous choice; the flow is linear so no other state moves.
func (s *WizardService) Answer(id, key, option string) (*WizardSession, error) {
	step := stepByKey(key)
	if step == nil {
		return nil, ErrUnknownWizardStep
	}
	if !validOption(step, option) {
		return nil, ErrInvalidWizardOption
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	session, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	session.Answers[key] = option
	s.sessions.Set(sessionKey(id), session, s.ttl)
	return session.snapshot(), nil
}

// Complete closes the session and returns its answers. Every question step
// must have been answered; the registration form itself is validated by the
// auth handler this hands off to.
func (s *WizardService) Complete(id string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	for _, step := range wizardSteps {
		if step.IsForm {
			continue
		}
		if _, ok := session.Answers[step.Key]; !ok {
			return nil, ErrWizardIncomplete
		}
	}

	s.sessions.Delete(sessionKey(id))
	return session.snapshot().Answers, nil
}

func sessionKey(id string) string {
	return "wizard:" + id
}

func stepByKey(key string) *WizardStep {
	for i := range wizardSteps {
		if wizardSteps[i].Key == key && !wizardSteps[i].IsForm {
			return &wizardSteps[i]
		}
	}
	return nil
}

func validOption(step *WizardStep, option string) bool {
	for _, o := range step.Options {
		if o == option {
			return true
		}
	}
	return false
}
