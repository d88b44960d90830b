package sonoff

import (
	"net/netip"
	"strings"

	"golang.org/x/net/dns/dnsmessage"
)

// parsedPacket holds whatever fields a single mDNS response packet carried.
// A responder rarely puts every record type in one packet, so callers fold
// several parsedPackets together (discovery.go) before a device is usable.
type parsedPacket struct {
	addr     netip.Addr // from an A record
	host     string     // hostname the A record names
	service  string     // PTR target: the service instance name
	instance string     // owner name of the SRV/TXT record (the instance name)
	target   string     // SRV target hostname
	port     uint16     // SRV port
	info     map[string]string
}

// parsePacket decodes a raw mDNS UDP payload and extracts the A, PTR, SRV
// and TXT records it carries.
func parsePacket(data []byte) (parsedPacket, error) {
	var out parsedPacket

	var p dnsmessage.Parser
	if _, err := p.Start(data); err != nil {
		return out, err
	}
	if err := p.SkipAllQuestions(); err != nil {
		return out, err
	}

	for {
		h, err := p.AnswerHeader()
		if err == dnsmessage.ErrSectionDone {
			break
		}
		if err != nil {
			return out, err
		}

		switch h.Type {
		case dnsmessage.TypeA:
			r, err := p.AResource()
			if err != nil {
				return out, err
			}
			addr := netip.AddrFrom4(r.A)
			out.addr = addr
			out.host = strings.TrimSuffix(h.Name.String(), ".")
		case dnsmessage.TypePTR:
			r, err := p.PTRResource()
			if err != nil {
				return out, err
			}
			out.service = strings.TrimSuffix(r.PTR.String(), ".")
		case dnsmessage.TypeSRV:
			r, err := p.SRVResource()
			if err != nil {
				return out, err
			}
			out.instance = strings.TrimSuffix(h.Name.String(), ".")
			out.target = strings.TrimSuffix(r.Target.String(), ".")
			out.port = r.Port
		case dnsmessage.TypeTXT:
			r, err := p.TXTResource()
			if err != nil {
				return out, err
			}
			out.info = parseTXTRecord(r.TXT)
			out.instance = strings.TrimSuffix(h.Name.String(), ".")
		default:
			if err := p.SkipAnswer(); err != nil {
				return out, err
			}
		}
	}

	return out, nil
}

// parseTXTRecord splits each TXT character-string on its first "=" into a
// key/value field (mDNS TXT records are a set of "key=value" strings).
func parseTXTRecord(fields []string) map[string]string {
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		k, v, ok := parseTXTField(f)
		if !ok {
			continue
		}
		out[k] = v
	}
	return out
}

func parseTXTField(field string) (key, value string, ok bool) {
	idx := strings.IndexByte(field, '=')
	if idx < 0 {
		return "", "", false
	}
	return field[:idx], field[idx+1:], true
}

// buildQueryPacket builds an mDNS PTR query for serviceName (e.g.
// "_ewelink._tcp.local.").
func buildQueryPacket(id uint16, serviceName string) ([]byte, error) {
	b := dnsmessage.NewBuilder(nil, dnsmessage.Header{ID: id, RecursionDesired: false})
	b.EnableCompression()

	if err := b.StartQuestions(); err != nil {
		return nil, err
	}
	name, err := dnsmessage.NewName(serviceName)
	if err != nil {
		return nil, err
	}
	if err := b.Question(dnsmessage.Question{
		Name:  name,
		Type:  dnsmessage.TypePTR,
		Class: dnsmessage.ClassINET,
	}); err != nil {
		return nil, err
	}

	return b.Finish()
}
