//go:build integration

package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/eskrenkovic/run-sessions-go/internal/modules/auth"
	"github.com/eskrenkovic/run-sessions-go/internal/modules/realtime"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

type wsFrame struct {
	Event realtime.Event  `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func dial(t *testing.T, userID uuid.UUID) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(fixture.baseURL, "http") + "/ws?" + auth.UserIDQueryParam + "=" + userID.String()
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func readUntil(t *testing.T, conn *websocket.Conn, event realtime.Event) wsFrame {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var f wsFrame
		require.NoError(t, conn.ReadJSON(&f))
		if f.Event == event {
			return f
		}
	}
}

func Test_WebSocket_Resumes_Active_Session_On_Connect(t *testing.T) {
	// Arrange
	ownerID := uuid.New()
	session := startSessionFor(t, ownerID)

	// Act
	conn := dial(t, ownerID)

	// Assert
	resumed := readUntil(t, conn, realtime.EventSessionResumed)

	var payload realtime.SessionResumedPayload
	require.NoError(t, json.Unmarshal(resumed.Data, &payload))
	require.Equal(t, session.ID, payload.SessionID)

	readUntil(t, conn, realtime.EventConnected)
}

func Test_WebSocket_Location_Updates_Reach_Session_Room(t *testing.T) {
	// Arrange
	ownerID := uuid.New()
	guestID := seedUser(t, "anyone")
	session := startSessionFor(t, ownerID)
	invite := sendInviteTo(t, ownerID, guestID, session.ID)
	require.Equal(t, http.StatusNoContent, send(t, guestID, http.MethodPost, "/v1/invites/"+invite.ID.String()+"/accept", nil).status)

	ownerConn := dial(t, ownerID)
	guestConn := dial(t, guestID)
	readUntil(t, ownerConn, realtime.EventConnected)
	readUntil(t, guestConn, realtime.EventConnected)

	// Act
	for _, lat := range []float64{45.80, 45.81, 45.82} {
		require.NoError(t, ownerConn.WriteJSON(map[string]interface{}{
			"type":     "location_update",
			"lat":      lat,
			"lng":      15.97,
			"accuracy": 4.5,
		}))
	}

	// Assert
	update := readUntil(t, guestConn, realtime.EventLocationUpdate)

	var payload realtime.LocationUpdatePayload
	require.NoError(t, json.Unmarshal(update.Data, &payload))
	require.Equal(t, ownerID, payload.UserID)
	require.Equal(t, 45.82, payload.Lat)
}
