package discovery

import (
	"fmt"

	"github.com/google/uuid"
)

// WS-Discovery probe construction. The probe format follows the ONVIF
// Device Discovery profile: a SOAP 1.2 envelope multicast to
// 239.255.255.250:3702 asking NetworkVideoTransmitter types to respond.

const (
	// MulticastAddress is the standard WS-Discovery multicast group and port
	MulticastAddress = "239.255.255.250:3702"

	// probeTemplate is the SOAP envelope sent to the multicast group.
	// The single %s is the urn:uuid MessageID, unique per scan.
	probeTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope
    xmlns:soap="http://www.w3.org/2003/05/soap-envelope"
    xmlns:wsa="http://schemas.xmlsoap.org/ws/2004/08/addressing"
    xmlns:wsd="http://schemas.xmlsoap.org/ws/2005/04/discovery"
    xmlns:tns="http://www.onvif.org/ver10/network/wsdl">
    <soap:Header>
        <wsa:Action>http://schemas.xmlsoap.org/ws/2005/04/discovery/Probe</wsa:Action>
        <wsa:MessageID>%s</wsa:MessageID>
        <wsa:ReplyTo>
            <wsa:Address>http://schemas.xmlsoap.org/ws/2004/08/addressing/role/anonymous</wsa:Address>
        </wsa:ReplyTo>
        <wsa:To>urn:schemas-xmlsoap-org:ws:2005:04:discovery</wsa:To>
    </soap:Header>
    <soap:Body>
        <wsd:Probe>
            <wsd:Types>tns:NetworkVideoTransmitter</wsd:Types>
        </wsd:Probe>
    </soap:Body>
</soap:Envelope>`
)

// NewMessageID generates a WS-Addressing MessageID for one probe.
// Each scan gets a fresh ID so stale responses can be told apart.
func NewMessageID() string {
	return "urn:uuid:" + uuid.NewString()
}

// BuildProbeMessage constructs the complete probe datagram for a message ID.
//
// Parameters:
//   - messageID: WS-Addressing MessageID (use NewMessageID())
//
// Returns:
//   - UTF-8 encoded SOAP envelope ready to send via UDP
func BuildProbeMessage(messageID string) []byte {
	return []byte(fmt.Sprintf(probeTemplate, messageID))
}
