package davislive

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"
)

// startUDPReceiver binds the granted broadcast port and starts the
// packet loop.
func (s *Station) startUDPReceiver() error {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: s.broadcastPort})
	if err != nil {
		return fmt.Errorf("binding UDP port %d: %w", s.broadcastPort, err)
	}

	s.udpMu.Lock()
	s.udpConn = conn
	s.udpMu.Unlock()
	s.logger.Infof("station [%s] UDP receiver listening on port %d", s.deps.Config.Name, s.broadcastPort)

	s.deps.WG.Add(1)
	go s.receivePackets(conn)
	return nil
}

// resumeAfterReadError reports whether the receive loop should keep
// running after a non-timeout read error. A closed socket ends the
// loop (the refresh loop rebinds on a port change); anything else is
// transient.
func resumeAfterReadError(err error) bool {
	return !errors.Is(err, net.ErrClosed)
}

// receivePackets reads broadcast packets until the connection is closed
// or the context is cancelled. Packets from hosts other than the
// configured device are dropped: the broadcast port is shared, and
// another WLL on the LAN would otherwise pollute this station's data.
func (s *Station) receivePackets(conn *net.UDPConn) {
	defer s.deps.WG.Done()
	defer s.logger.Infof("station [%s] UDP receiver stopped", s.deps.Config.Name)

	buf := make([]byte, 4096)
	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		n, addr, err := conn.ReadFrom(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			if s.ctx.Err() != nil || !resumeAfterReadError(err) {
				return
			}
			// A transient socket error must not end live ingestion.
			s.logger.Errorf("station [%s] UDP read: %v", s.deps.Config.Name, err)
			select {
			case <-s.ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		udpAddr, ok := addr.(*net.UDPAddr)
		if !ok || udpAddr.IP.String() != s.deps.Config.Hostname {
			s.logger.Debugf("station [%s] ignoring packet from %s", s.deps.Config.Name, addr)
			continue
		}

		var data CurrentConditionsData
		if err := json.Unmarshal(buf[:n], &data); err != nil {
			s.logger.Errorf("station [%s] malformed broadcast packet: %v", s.deps.Config.Name, err)
			continue
		}

		s.emit(decode(&data, s.deps.Config.Name, broadcastInterval))
	}
}
