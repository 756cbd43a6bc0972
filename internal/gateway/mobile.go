package gateway

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/logging"
	"github.com/alessandrocdiasbr/telemonitoramento-back/internal/models"
)

const maxConnsPerPatient = 10

// Mobile pushes replies to the in-app chat over the patient's open
// WebSocket connections. A patient with no open connection still gets the
// message through the persisted chat history, so an empty connection set is
// not a delivery error.
type Mobile struct {
	mu     sync.Mutex
	conns  map[int64]map[*websocket.Conn]bool
	logger *logging.Logger
}

func NewMobile(logger *logging.Logger) *Mobile {
	return &Mobile{conns: make(map[int64]map[*websocket.Conn]bool), logger: logger}
}

// Attach registers a WebSocket connection for a patient.
func (m *Mobile) Attach(patientID int64, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.conns[patientID]; !exists {
		m.conns[patientID] = make(map[*websocket.Conn]bool)
	}
	if len(m.conns[patientID]) >= maxConnsPerPatient {
		m.logger.Warnf("Max connections reached for patient %d", patientID)
		return
	}
	m.conns[patientID][conn] = true
	m.logger.Infof("Attached WebSocket for patient %d (total: %d)", patientID, len(m.conns[patientID]))
}

// Detach removes a WebSocket connection for a patient.
func (m *Mobile) Detach(patientID int64, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if conns, exists := m.conns[patientID]; exists {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(m.conns, patientID)
		}
	}
}

func (m *Mobile) Send(ctx context.Context, ep models.Endpoint, text string) error {
	patientID, err := strconv.ParseInt(ep.Address, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid mobile address %q: %w", ep.Address, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	conns, exists := m.conns[patientID]
	if !exists {
		m.logger.Debugf("No open mobile connection for patient %d, message stays in history", patientID)
		return nil
	}
	// The in-app chat renders plain text.
	text = StripHTML(text)
	for conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
			m.logger.Errorf("Failed to push to patient %d WebSocket: %v", patientID, err)
			delete(conns, conn)
		}
	}
	if len(conns) == 0 {
		delete(m.conns, patientID)
	}
	return nil
}
