// Command dhcpcli runs the DHCPv4 or DHCPv6 client against a network
// interface and prints the lease it acquires.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/AdguardTeam/golibs/log"
	"github.com/dhcpwire/dhcpc/dhcpv4"
	"github.com/dhcpwire/dhcpc/dhcpv6"
	"github.com/spf13/cobra"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		log.Error("dhcpcli: %s", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "dhcpcli",
		Short: "Acquire a DHCPv4 or DHCPv6 lease on a network interface",
		PersistentPreRun: func(*cobra.Command, []string) {
			if verbose {
				log.SetLevel(log.DEBUG)
			}
		},
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every state transition")

	cmd.AddCommand(v4Cmd(), v6Cmd())

	return cmd
}

func v4Cmd() *cobra.Command {
	var proxyMAC string
	var hostName string

	cmd := &cobra.Command{
		Use:   "v4 <interface>",
		Short: "Acquire a DHCPv4 lease",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg *dhcpv4.Config
			if proxyMAC != "" {
				mac, err := net.ParseMAC(proxyMAC)
				if err != nil {
					return fmt.Errorf("dhcpcli: parsing --proxy-mac: %w", err)
				}
				cfg = dhcpv4.NewProxyConfig(args[0], mac)
			} else {
				cfg = dhcpv4.NewConfig(args[0])
			}
			if hostName != "" {
				cfg.SetHostName(hostName).UseHostNameAsClientID()
			}

			client, err := dhcpv4.NewClient(cfg)
			if err != nil {
				return fmt.Errorf("dhcpcli: creating v4 client: %w", err)
			}

			ctx := cmd.Context()
			var lastLease *dhcpv4.Lease
			for ctx.Err() == nil {
				if err := client.Next(ctx); err != nil {
					if ctx.Err() != nil {
						break
					}
					return fmt.Errorf("dhcpcli: %s: %w", client.State(), err)
				}

				if l := client.Lease(); l != nil && l != lastLease {
					printV4Lease(l)
					lastLease = l
				}
			}

			return client.Release(context.Background())
		},
	}
	cmd.Flags().StringVar(&proxyMAC, "proxy-mac", "", "run as a proxy presenting this hardware address")
	cmd.Flags().StringVar(&hostName, "hostname", "", "host name to send in option 12")

	return cmd
}

func v6Cmd() *cobra.Command {
	var iaType string

	cmd := &cobra.Command{
		Use:   "v6 <interface>",
		Short: "Acquire a DHCPv6 lease",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, err := parseIaType(iaType)
			if err != nil {
				return err
			}

			cfg := dhcpv6.NewConfig(args[0], typ)
			client, err := dhcpv6.NewClient(cfg)
			if err != nil {
				return fmt.Errorf("dhcpcli: creating v6 client: %w", err)
			}

			ctx := cmd.Context()
			var lastLease *dhcpv6.Lease
			for ctx.Err() == nil {
				if err := client.Next(ctx); err != nil {
					if ctx.Err() != nil {
						break
					}
					return fmt.Errorf("dhcpcli: %s: %w", client.State(), err)
				}

				if l := client.Lease(); l != nil && l != lastLease {
					printV6Lease(l, typ)
					lastLease = l
				}
			}

			return client.Release(context.Background())
		},
	}
	cmd.Flags().StringVar(&iaType, "ia-type", "na", "identity association type: na, ta, or pd")

	return cmd
}

func parseIaType(s string) (dhcpv6.IaType, error) {
	switch s {
	case "na", "":
		return dhcpv6.IaTypeNonTemporaryAddresses, nil
	case "ta":
		return dhcpv6.IaTypeTemporaryAddresses, nil
	case "pd":
		return dhcpv6.IaTypePrefixDelegation, nil
	default:
		return 0, fmt.Errorf("dhcpcli: unknown --ia-type %q, want na, ta, or pd", s)
	}
}

func printV4Lease(l *dhcpv4.Lease) {
	fmt.Printf("address:      %s\n", l.YIAddr)
	fmt.Printf("prefix:       /%d\n", l.PrefixLength())
	fmt.Printf("server:       %s\n", l.ServerID)
	fmt.Printf("lease time:   %ds\n", l.LeaseTimeSec)
	fmt.Printf("t1/t2:        %ds / %ds\n", l.T1Sec, l.T2Sec)
	if len(l.Gateways) > 0 {
		fmt.Printf("gateways:     %v\n", l.Gateways)
	}
	if len(l.DNS) > 0 {
		fmt.Printf("dns servers:  %v\n", l.DNS)
	}
}

func printV6Lease(l *dhcpv6.Lease, typ dhcpv6.IaType) {
	fmt.Printf("type:         %s\n", l.IAType)
	fmt.Printf("address:      %s\n", l.Address)
	if typ == dhcpv6.IaTypePrefixDelegation {
		fmt.Printf("prefix len:   /%d\n", l.PrefixLength)
	}
	fmt.Printf("preferred:    %ds\n", l.PreferredSec)
	fmt.Printf("valid:        %ds\n", l.ValidSec)
	if typ != dhcpv6.IaTypeTemporaryAddresses {
		fmt.Printf("t1/t2:        %ds / %ds\n", l.T1Sec, l.T2Sec)
	}
	if len(l.DNSServers) > 0 {
		fmt.Printf("dns servers:  %v\n", l.DNSServers)
	}
	if len(l.DomainList) > 0 {
		fmt.Printf("domain list:  %v\n", l.DomainList)
	}
}
