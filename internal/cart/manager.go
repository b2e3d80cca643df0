package cart

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"shopblog_back_end/internal/models"
)

const persistTimeout = 5 * time.Second

// Manager tient le panier en mémoire d'une session navigateur.
//
// Chaque mutation est appliquée en mémoire puis persistée au mieux : dans le
// stockage distant si un utilisateur est connecté, sinon dans le stockage
// invité. Un échec de persistance est journalisé et n'annule pas la mutation ;
// le panier en mémoire reste la référence pour la session.
type Manager struct {
	mu       sync.Mutex
	items    []models.CartItem
	userID   string
	guestKey string
	remote   Store
	guest    Store

	obsMu     sync.Mutex
	observers map[int]func([]models.CartItem)
	nextObs   int
}

// NewManager crée un panier vide et anonyme. guestKey identifie la session
// navigateur dans le stockage invité.
func NewManager(guestKey string, remote, guest Store) *Manager {
	return &Manager{
		guestKey:  guestKey,
		remote:    remote,
		guest:     guest,
		observers: make(map[int]func([]models.CartItem)),
	}
}

// Items retourne une copie du contenu courant
func (m *Manager) Items() []models.CartItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return models.CloneItems(m.items)
}

// Total retourne Σ prix × quantité en centimes
func (m *Manager) Total() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return TotalMinorUnits(m.items)
}

// UserID retourne l'utilisateur propriétaire du panier ("" si anonyme)
func (m *Manager) UserID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.userID
}

// Add ajoute une ou plusieurs lignes ; une ligne déjà présente voit sa quantité cumulée
func (m *Manager) Add(ctx context.Context, items ...models.CartItem) []models.CartItem {
	return m.mutate(ctx, func(current []models.CartItem) []models.CartItem {
		return Merge(current, items...)
	}, false)
}

// Remove retire la ligne id ; aucun effet si elle est absente
func (m *Manager) Remove(ctx context.Context, id string) []models.CartItem {
	return m.mutate(ctx, func(current []models.CartItem) []models.CartItem {
		return Without(current, id)
	}, false)
}

// Clear vide le panier
func (m *Manager) Clear(ctx context.Context) []models.CartItem {
	return m.mutate(ctx, func([]models.CartItem) []models.CartItem {
		return []models.CartItem{}
	}, true)
}

func (m *Manager) mutate(ctx context.Context, apply func([]models.CartItem) []models.CartItem, clearing bool) []models.CartItem {
	m.mu.Lock()
	m.items = apply(m.items)
	snapshot := models.CloneItems(m.items)
	m.persistLocked(ctx, snapshot, clearing)
	m.mu.Unlock()

	m.notify(snapshot)
	return snapshot
}

// persistLocked écrit le panier dans le bon stockage ; m.mu doit être tenu
func (m *Manager) persistLocked(ctx context.Context, items []models.CartItem, clearing bool) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	var err error
	switch {
	case m.userID != "" && clearing:
		err = m.remote.Delete(ctx, m.userID)
	case m.userID != "":
		err = m.remote.Save(ctx, m.userID, items)
	case clearing:
		err = m.guest.Delete(ctx, m.guestKey)
	default:
		err = m.guest.Save(ctx, m.guestKey, items)
	}
	if err != nil {
		log.Printf("⚠️ Sauvegarde du panier échouée (user=%q): %v", m.userID, err)
	}
}

// Load recharge le panier persisté pour l'identité courante. Un
// enregistrement absent ou invalide donne un panier vide, jamais une erreur.
func (m *Manager) Load(ctx context.Context) []models.CartItem {
	m.mu.Lock()
	if m.userID != "" {
		m.items = m.loadFrom(ctx, m.remote, m.userID)
	} else {
		m.items = m.loadFrom(ctx, m.guest, m.guestKey)
	}
	snapshot := models.CloneItems(m.items)
	m.mu.Unlock()

	m.notify(snapshot)
	return snapshot
}

func (m *Manager) loadFrom(ctx context.Context, store Store, key string) []models.CartItem {
	items, err := store.Load(ctx, key)
	if err != nil {
		if errors.Is(err, ErrMalformedCart) {
			log.Printf("⚠️ Panier stocké invalide pour %q, on repart d'un panier vide", key)
		} else {
			log.Printf("⚠️ Lecture du panier échouée pour %q: %v", key, err)
		}
		return []models.CartItem{}
	}
	// Normalise : ids dupliqués fusionnés, quantités invalides ramenées à 1
	return Merge(nil, items...)
}

// SetIdentity applique une transition d'identité.
//
// Connexion : le panier distant de l'utilisateur est chargé et les lignes du
// panier invité y sont cumulées ; si des lignes invitées existaient, le
// résultat est persisté et l'enregistrement invité supprimé.
// Déconnexion : le panier en mémoire est vidé, rien n'est persisté.
func (m *Manager) SetIdentity(ctx context.Context, identity *models.Identity) {
	newID := ""
	if identity != nil {
		newID = identity.ID
	}

	m.mu.Lock()
	if newID == m.userID {
		m.mu.Unlock()
		return
	}

	prevID := m.userID
	m.userID = newID

	switch {
	case newID == "":
		m.items = []models.CartItem{}
		log.Printf("🛒 Panier vidé en mémoire après déconnexion de %s", prevID)

	case prevID == "":
		guestItems := m.items
		m.items = Merge(m.loadFrom(ctx, m.remote, newID), guestItems...)
		if len(guestItems) > 0 {
			m.persistLocked(ctx, models.CloneItems(m.items), false)
			if err := m.guest.Delete(ctx, m.guestKey); err != nil {
				log.Printf("⚠️ Suppression du panier invité échouée: %v", err)
			}
			log.Printf("🛒 %d ligne(s) invitée(s) fusionnée(s) dans le panier de %s", len(guestItems), newID)
		}

	default:
		m.items = m.loadFrom(ctx, m.remote, newID)
	}

	snapshot := models.CloneItems(m.items)
	m.mu.Unlock()

	m.notify(snapshot)
}

// Subscribe enregistre fn, appelée avec une copie du panier après chaque
// changement. La fonction retournée désinscrit fn ; l'appeler plusieurs fois
// est sans effet.
func (m *Manager) Subscribe(fn func([]models.CartItem)) func() {
	m.obsMu.Lock()
	id := m.nextObs
	m.nextObs++
	m.observers[id] = fn
	m.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.obsMu.Lock()
			delete(m.observers, id)
			m.obsMu.Unlock()
		})
	}
}

// Close retire tous les observateurs
func (m *Manager) Close() {
	m.obsMu.Lock()
	m.observers = make(map[int]func([]models.CartItem))
	m.obsMu.Unlock()
}

func (m *Manager) notify(items []models.CartItem) {
	m.obsMu.Lock()
	fns := make([]func([]models.CartItem), 0, len(m.observers))
	for _, fn := range m.observers {
		fns = append(fns, fn)
	}
	m.obsMu.Unlock()

	for _, fn := range fns {
		fn(models.CloneItems(items))
	}
}
