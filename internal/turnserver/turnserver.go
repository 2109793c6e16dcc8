// Package turnserver embeds a pion TURN relay so voice peers behind
// symmetric NAT can still connect. The HTTP API hands its address and
// credentials to clients as part of the ICE server config.
package turnserver

import (
	"crypto/rand"
	"fmt"
	"net"

	"github.com/pion/turn/v3"
	"github.com/rs/zerolog/log"
)

type Server struct {
	server   *turn.Server
	port     int
	relayIP  net.IP
	username string
	password string
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func Start(port int, realm, publicIP string) (*Server, error) {
	udpListener, err := net.ListenPacket("udp4", fmt.Sprintf("0.0.0.0:%d", port))
	if err != nil {
		return nil, fmt.Errorf("turn udp listener: %w", err)
	}

	relayIP := net.ParseIP(publicIP)
	if relayIP == nil {
		relayIP = localIP()
	}

	username := "chatcord"
	password := generatePassword()

	s, err := turn.NewServer(turn.ServerConfig{
		Realm:       realm,
		AuthHandler: staticAuthHandler(username, password, realm),
		PacketConnConfigs: []turn.PacketConnConfig{
			{
				PacketConn: udpListener,
				RelayAddressGenerator: &turn.RelayAddressGeneratorStatic{
					RelayAddress: relayIP,
					Address:      "0.0.0.0",
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("turn server: %w", err)
	}

	log.Info().Str("module", "turnserver").Int("port", port).
		Str("relay", relayIP.String()).Msg("TURN server started")
	return &Server{server: s, port: port, relayIP: relayIP, username: username, password: password}, nil
}

func (s *Server) Credentials() Credentials {
	return Credentials{Username: s.username, Password: s.password}
}

// URL is the turn: URI clients put in their RTCPeerConnection config.
func (s *Server) URL() string {
	return fmt.Sprintf("turn:%s:%d", s.relayIP, s.port)
}

func (s *Server) Port() int { return s.port }

func (s *Server) Close() error {
	if s.server != nil {
		return s.server.Close()
	}
	return nil
}

func staticAuthHandler(username, password, realm string) turn.AuthHandler {
	key := turn.GenerateAuthKey(username, realm, password)
	return func(u, _ string, _ net.Addr) ([]byte, bool) {
		if u == username {
			return key, true
		}
		return nil, false
	}
}

func generatePassword() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return fmt.Sprintf("%x", b)
}

// localIP finds the outward-facing local address as a relay fallback when
// no public IP is configured.
func localIP() net.IP {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return net.ParseIP("127.0.0.1")
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP
}
