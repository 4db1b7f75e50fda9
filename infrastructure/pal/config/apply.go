package config

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"overlink/application"
	"overlink/domain"
	"overlink/infrastructure/settings"
)

// apply folds one Token into s, per the flag table of spec.md §6. Called
// once per config-file token, then again (in the same order) per CLI
// token, so CLI flags always override config-file values for scalar
// fields and append to config-file values for repeatable fields (-l, -n,
// -R).
func apply(s *settings.Settings, tok Token) error {
	switch tok.Flag {
	case 'a':
		return applyInterfaceAddress(s, tok.Value)
	case 'c':
		s.Community = domain.Community(tok.Value)
		return nil
	case 'k':
		s.EncryptionKey = tok.Value
		if s.Transform == application.TransformNull {
			s.Transform = application.TransformAES
		}
		return nil
	case 'A':
		return applyTransform(s, tok.Value)
	case 'z':
		return applyCompression(s, tok.Value)
	case 'H':
		s.HeaderEncrypt = true
		return nil
	case 'l':
		s.Supernodes = append(s.Supernodes, tok.Value)
		return nil
	case 'i':
		secs, err := strconv.Atoi(tok.Value)
		if err != nil {
			return fmt.Errorf("-i: %w", err)
		}
		s.RegisterInterval = time.Duration(secs) * time.Second
		return nil
	case 'L':
		ttl, err := strconv.ParseUint(tok.Value, 10, 8)
		if err != nil {
			return fmt.Errorf("-L: %w", err)
		}
		s.TTL = uint8(ttl)
		return nil
	case 'p':
		port, err := strconv.Atoi(tok.Value)
		if err != nil {
			return fmt.Errorf("-p: %w", err)
		}
		s.LocalPort = port
		return nil
	case 't':
		port, err := strconv.Atoi(tok.Value)
		if err != nil {
			return fmt.Errorf("-t: %w", err)
		}
		s.ManagementPort = port
		return nil
	case 'm':
		mac, err := domain.ParseMACString(tok.Value)
		if err != nil {
			return fmt.Errorf("-m: %w", err)
		}
		s.MAC = mac
		return nil
	case 'M':
		mtu, err := strconv.Atoi(tok.Value)
		if err != nil {
			return fmt.Errorf("-M: %w", err)
		}
		s.MTU = mtu
		return nil
	case 'D':
		s.PMTUDiscovery = true
		return nil
	case 'r':
		s.AllowRouting = true
		return nil
	case 'E':
		s.DropMulticast = false // accept multicast frames; default is to drop
		return nil
	case 'S':
		s.DisableP2P = true
		return nil
	case 'T':
		tos, err := strconv.ParseUint(tok.Value, 10, 8)
		if err != nil {
			return fmt.Errorf("-T: %w", err)
		}
		s.TOS = uint8(tos)
		return nil
	case 'n':
		route, err := domain.ParseRoute(tok.Value)
		if err != nil {
			return fmt.Errorf("-n: %w", err)
		}
		s.Routes = append(s.Routes, route)
		return nil
	case 'R':
		rule, err := domain.ParseFilterRule(tok.Value)
		if err != nil {
			return fmt.Errorf("-R: %w", err)
		}
		s.FilterRules = append(s.FilterRules, rule)
		return nil
	case 'I':
		s.DeviceDesc = tok.Value
		return nil
	case 'f':
		s.Foreground = true
		return nil
	case 'u':
		uid, err := strconv.Atoi(tok.Value)
		if err != nil {
			return fmt.Errorf("-u: %w", err)
		}
		s.DropUID = uid
		return nil
	case 'g':
		gid, err := strconv.Atoi(tok.Value)
		if err != nil {
			return fmt.Errorf("-g: %w", err)
		}
		s.DropGID = gid
		return nil
	case 'v':
		s.Verbosity++
		return nil
	case 'h':
		return errHelpRequested
	default:
		return fmt.Errorf("unrecognized flag -%c", tok.Flag)
	}
}

func applyInterfaceAddress(s *settings.Settings, value string) error {
	mode := settings.AddressStatic
	addr := value
	if prefix, rest, found := strings.Cut(value, ":"); found {
		switch prefix {
		case "static":
			mode = settings.AddressStatic
		case "dhcp":
			mode = settings.AddressDHCP
		case "sn_assign":
			mode = settings.AddressSNAssign
		default:
			return fmt.Errorf("-a: unknown mode %q", prefix)
		}
		addr = rest
	}

	// sn_assign carries no address of its own — it is granted later by a
	// supernode's REGISTER_SUPER_ACK (spec.md §4.5).
	if mode == settings.AddressSNAssign && addr == "" {
		s.InterfaceMode = mode
		return nil
	}

	cidr := addr
	if !strings.Contains(addr, "/") {
		cidr = fmt.Sprintf("%s/%d", addr, settings.DefaultInterfaceCIDR)
	}
	prefix, err := netip.ParsePrefix(cidr)
	if err != nil {
		return fmt.Errorf("-a: %w", err)
	}

	s.InterfaceMode = mode
	s.InterfaceCIDR = prefix
	return nil
}

func applyTransform(s *settings.Settings, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("-A: %w", err)
	}
	switch n {
	case 1:
		s.Transform = application.TransformNull
	case 2:
		s.Transform = application.TransformTwofish
	case 3:
		s.Transform = application.TransformAES
	case 4:
		s.Transform = application.TransformChaCha20
	case 5:
		s.Transform = application.TransformSpeck
	default:
		return fmt.Errorf("-A: unknown cipher %d", n)
	}
	return nil
}

func applyCompression(s *settings.Settings, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("-z: %w", err)
	}
	switch n {
	case 1:
		s.Compression = application.CompressionLZO
	case 2:
		s.Compression = application.CompressionZSTD
	default:
		return fmt.Errorf("-z: unknown compression %d", n)
	}
	return nil
}
