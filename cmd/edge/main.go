// Command edge is the presentation entrypoint (A4): it resolves
// configuration, opens the TAP device and sockets, wires every C1-C8
// collaborator together, and runs the event loop until a shutdown signal
// arrives, per spec.md §6/§9 and SPEC_FULL.md §2's A4 row.
package main

import (
	"fmt"
	"net/netip"
	"os"
	"time"

	"overlink/application"
	"overlink/infrastructure/compression"
	"overlink/infrastructure/crypto"
	"overlink/infrastructure/errs"
	"overlink/infrastructure/eventloop"
	"overlink/infrastructure/forwarding"
	"overlink/infrastructure/logging"
	"overlink/infrastructure/management"
	"overlink/infrastructure/pal/args"
	"overlink/infrastructure/pal/config"
	"overlink/infrastructure/pal/exec_commander"
	"overlink/infrastructure/pal/privilege"
	palroute "overlink/infrastructure/pal/route"
	"overlink/infrastructure/pal/signal"
	"overlink/infrastructure/pal/tap"
	"overlink/infrastructure/registration"
	"overlink/infrastructure/registry"
	"overlink/infrastructure/settings"
	"overlink/infrastructure/udpsocket"
	"overlink/infrastructure/wire"
)

func main() {
	logger := logging.NewStdLogger()

	s, err := config.Resolve(args.NewDefaultProvider())
	if err != nil {
		if config.IsHelpRequested(err) {
			printUsage()
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := run(s, logger); err != nil {
		logger.Printf("edge: fatal: %v", err)
		os.Exit(1)
	}
}

func run(s settings.Settings, logger application.Logger) error {
	tapDevice, err := tap.Open(s.InterfaceName)
	if err != nil {
		return errs.Wrap(errs.Resource, "opening TAP device", err)
	}
	defer tapDevice.Close()

	commander := exec_commander.NewExecCommander()

	ifaceManager := palroute.NewInterfaceManager(commander, tapDevice.Name())
	if s.InterfaceMode == settings.AddressStatic {
		if err := ifaceManager.SetAddress(s.InterfaceCIDR); err != nil {
			return errs.Wrap(errs.Resource, "configuring TAP address", err)
		}
	}
	if err := ifaceManager.SetMTU(s.MTU); err != nil {
		return errs.Wrap(errs.Resource, "configuring TAP MTU", err)
	}
	if err := ifaceManager.SetHardwareAddress(s.MAC); err != nil {
		return errs.Wrap(errs.Resource, "configuring TAP MAC", err)
	}
	if err := ifaceManager.Up(); err != nil {
		return errs.Wrap(errs.Resource, "bringing up TAP device", err)
	}

	routeManager := palroute.NewIPRouteManager(commander, tapDevice.Name())
	for _, route := range s.Routes {
		if err := routeManager.Apply(route); err != nil {
			logger.Printf("edge: apply route %s: %v", route, err)
		}
	}
	defer func() {
		for _, route := range s.Routes {
			if err := routeManager.Revert(route); err != nil {
				logger.Printf("edge: revert route %s: %v", route, err)
			}
		}
	}()

	udpSocket, err := udpsocket.Listen(s.LocalPort)
	if err != nil {
		return errs.Wrap(errs.Transport, "opening UDP socket", err)
	}
	defer udpSocket.Close()
	if err := udpSocket.SetTTL(int(s.TTL)); err != nil {
		return errs.Wrap(errs.Transport, "setting UDP TTL", err)
	}
	if err := udpSocket.SetTOS(int(s.TOS)); err != nil {
		return errs.Wrap(errs.Transport, "setting UDP TOS", err)
	}

	mgmtSocket, err := udpsocket.Listen(s.ManagementPort)
	if err != nil {
		return errs.Wrap(errs.Transport, "opening management socket", err)
	}
	defer mgmtSocket.Close()

	if s.DropUID >= 0 || s.DropGID >= 0 {
		if err := privilege.NewUnixDropper().DropTo(s.DropUID, s.DropGID); err != nil {
			return errs.Wrap(errs.Resource, "dropping privileges", err)
		}
	}

	clock := application.SystemClock{}

	peers := registry.NewPeerTable()
	supernodes := registry.NewSupernodeList(s.Supernodes)

	engineCfg := registration.DefaultConfig()
	engineCfg.RegisterInterval = s.RegisterInterval
	engine := registration.NewEngine(engineCfg, peers, supernodes)

	ciphers, err := forwarding.NewCipherSuite(s.Community, s.EncryptionKey, clock)
	if err != nil {
		return errs.Wrap(errs.Config, "building cipher suite", err)
	}

	lzo := compression.LZOCompressor{}
	var zstdCompressor *compression.ZSTDCompressor
	var zstdForSet application.Compressor // left nil unless constructed below, so NewSet's nil check holds
	if s.Compression == application.CompressionZSTD {
		zstdCompressor, err = compression.NewZSTDCompressor()
		if err != nil {
			return errs.Wrap(errs.Config, "building zstd compressor", err)
		}
		defer zstdCompressor.Close()
		zstdForSet = zstdCompressor
	}
	compressSet := compression.NewSet(lzo, zstdForSet)

	var egressCandidate application.Compressor
	switch s.Compression {
	case application.CompressionLZO:
		egressCandidate = lzo
	case application.CompressionZSTD:
		egressCandidate = zstdCompressor
	}
	compressPolicy := compression.NewPolicy(egressCandidate)

	var headerCipher *crypto.HeaderCipher
	if s.HeaderEncrypt {
		key, err := crypto.DeriveHeaderKey(s.Community, s.EncryptionKey, 32)
		if err != nil {
			return errs.Wrap(errs.Config, "deriving header key", err)
		}
		headerCipher, err = crypto.NewHeaderCipher(key)
		if err != nil {
			return errs.Wrap(errs.Config, "building header cipher", err)
		}
	}

	filters := forwarding.NewFilterSet(s.FilterRules)

	pipelineCfg := forwarding.Config{
		Community:        s.Community,
		SelfMAC:          s.MAC,
		TTL:              s.TTL,
		DropMulticast:    s.DropMulticast,
		AllowP2P:         !s.DisableP2P,
		AllowRouting:     s.AllowRouting,
		OverlaySubnet:    s.InterfaceCIDR,
		HeaderEncryption: s.HeaderEncrypt,
		Transform:        s.Transform,
		DevAddr:          deviceAddrFromPrefix(s.InterfaceCIDR),
		DevDesc:          wire.NewDevDesc(s.DeviceDesc),
	}
	if s.EncryptionKey != "" {
		pipelineCfg.Auth = wire.Auth{Scheme: 1, Token: []byte(s.EncryptionKey)}
	}

	pipeline := forwarding.NewPipeline(
		pipelineCfg,
		peers,
		supernodes,
		engine,
		ciphers,
		compressPolicy,
		compressSet,
		headerCipher,
		filters,
		clock,
		settings.DefaultFrameTolerance,
		settings.DefaultJitterTolerance,
		logger,
	)

	verbosity := &management.VerbosityLevel{}
	verbosity.Set(s.Verbosity)
	mgmtServer := management.NewServer(peers, supernodes, verbosity, s.Community)

	flag := signal.NewFlag()
	flag.Watch(signal.NewDefaultProvider())
	defer flag.Close()

	timers := eventloop.Timers{
		RegisterSuperInterval: s.RegisterInterval,
		PurgeInterval:         settings.DefaultRegisterTimeout,
		PeerPingInterval:      5 * time.Second,
		PollBound:             10 * time.Second,
	}

	loop := eventloop.New(
		tapDevice,
		udpSocket,
		mgmtSocket,
		mgmtServer,
		pipeline,
		engine,
		peers,
		supernodes,
		clock,
		logger,
		flag,
		timers,
		ifaceManager,
		s.InterfaceMode == settings.AddressSNAssign,
	)

	logger.Printf("edge: joined community %q via %d supernode(s)", s.Community, len(s.Supernodes))
	return loop.Run()
}

// deviceAddrFromPrefix packs an interface CIDR into the wire's compact
// {net_addr, bitlen} representation, advertised in REGISTER/REGISTER_SUPER
// bodies (spec.md §4.1).
func deviceAddrFromPrefix(prefix netip.Prefix) wire.DeviceAddr {
	a4 := prefix.Addr().As4()
	var netAddr uint32
	for _, b := range a4 {
		netAddr = netAddr<<8 | uint32(b)
	}
	return wire.DeviceAddr{NetAddr: netAddr, BitLen: uint8(prefix.Bits())}
}

func printUsage() {
	fmt.Println(`overlink edge - join a community and exchange Ethernet frames with its peers

Usage: edge [config-file] [options]

See spec.md §6 for the full flag table (-a, -c, -k, -A, -z, -H, -l, -i, -L,
-p, -t, -m, -M, -D, -r, -E, -S, -T, -n, -R, -I, -f, -u, -g, -v, -h).`)
}
