package discovery

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/arlott/frigatemx/internal/rtsp"
)

// Unicast ONVIF enrichment. When the multicast response alone does not
// identify a camera, a GetDeviceInformation call against the device
// service endpoint often does. The call runs with a short timeout so a
// dead endpoint cannot stall the scan, and every failure is tolerated:
// the camera is simply reported without the extra detail.

// DeviceInfoTimeout bounds the unicast GetDeviceInformation request.
// Kept short to keep discovery fast even when many cameras ignore it.
const DeviceInfoTimeout = time.Second

// deviceInfoRequest is the SOAP body for GetDeviceInformation.
const deviceInfoRequest = `<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope"
               xmlns:tds="http://www.onvif.org/ver10/device/wsdl">
    <soap:Header/>
    <soap:Body>
        <tds:GetDeviceInformation/>
    </soap:Body>
</soap:Envelope>`

// deviceInfoAction is the SOAPAction header value for GetDeviceInformation.
const deviceInfoAction = "http://www.onvif.org/ver10/device/wsdl/GetDeviceInformation"

// DeviceInformation holds the fields of a GetDeviceInformation response.
type DeviceInformation struct {
	Manufacturer    string
	Model           string
	FirmwareVersion string
	SerialNumber    string
}

// FetchDeviceInformation issues an unauthenticated GetDeviceInformation
// request against an ONVIF device service endpoint. Most cameras answer
// this call without credentials.
func FetchDeviceInformation(ctx context.Context, endpoint string) (*DeviceInformation, error) {
	ctx, cancel := context.WithTimeout(ctx, DeviceInfoTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader([]byte(deviceInfoRequest)))
	if err != nil {
		return nil, fmt.Errorf("failed to build device info request: %w", err)
	}
	req.Header.Set("Content-Type", "application/soap+xml; charset=utf-8")
	req.Header.Set("SOAPAction", deviceInfoAction)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("device info request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("device info request returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return nil, fmt.Errorf("failed to read device info response: %w", err)
	}

	return parseDeviceInformation(body)
}

// parseDeviceInformation extracts the response fields, matching element
// local names so any tds namespace prefix works.
func parseDeviceInformation(data []byte) (*DeviceInformation, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))

	var info DeviceInformation
	var current string
	var found bool

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse device info response: %w", err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			current = t.Name.Local
		case xml.EndElement:
			current = ""
		case xml.CharData:
			text := strings.TrimSpace(string(t))
			if text == "" {
				continue
			}
			switch current {
			case "Manufacturer":
				info.Manufacturer = text
				found = true
			case "Model":
				info.Model = text
				found = true
			case "FirmwareVersion":
				info.FirmwareVersion = text
				found = true
			case "SerialNumber":
				info.SerialNumber = text
				found = true
			}
		}
	}

	if !found {
		return nil, fmt.Errorf("device info response contained no recognized fields")
	}
	return &info, nil
}

// EnrichCamera fills a camera in with device information from a unicast
// call. Returns true when the call succeeded and the camera was updated.
// Failures leave the camera untouched; enrichment never fails a scan.
func EnrichCamera(ctx context.Context, camera *Camera) bool {
	info, err := FetchDeviceInformation(ctx, camera.ONVIFURL)
	if err != nil {
		return false
	}

	if info.Manufacturer != "" {
		camera.Manufacturer = info.Manufacturer
	}
	if info.Model != "" {
		camera.Model = info.Model
	}
	if info.FirmwareVersion != "" {
		camera.Firmware = info.FirmwareVersion
	}

	// A model plus firmware makes a more useful display name than Camera_N
	if camera.Model != "" && camera.Firmware != "" {
		camera.Name = fmt.Sprintf("%s (FW: %s)", camera.Model, camera.Firmware)
	}

	// A manufacturer learned here unlocks the vendor URL template
	if camera.Identified() {
		camera.RTSPURL = rtsp.Synthesize(camera.IP, camera.Manufacturer, "admin", "password").DefaultURL
	}

	camera.Status = StatusDetailed
	return true
}
