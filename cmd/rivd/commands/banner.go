package commands

import (
	"github.com/pterm/pterm"

	"github.com/rivcore/riv/logger"
	"github.com/rivcore/riv/version"
)

// printStartupBanner renders rivd's identity, build info, and the
// provider's enumerated public URIs using pterm so the demo CLI looks
// the way an operator would expect a running service to announce
// itself, instead of a bare log line.
func printStartupBanner(providerName string, port int, verbosity int, uris []string) {
	pterm.DefaultBigText.WithLetters(
		pterm.NewLettersFromStringWithStyle("riv", pterm.NewStyle(pterm.FgCyan)),
	).Render()

	info := version.Get()
	pterm.DefaultSection.Println("Status")
	pterm.Info.Printfln("Version:    %s (%s)", info.Version, info.Short())
	pterm.Info.Printfln("Provider:   %s", providerName)
	pterm.Info.Printfln("Port:       %d", port)
	pterm.Info.Printfln("Verbosity:  %s", logger.LevelName(verbosity))

	if len(uris) > 0 {
		pterm.DefaultSection.Println("Public URIs")
		for _, u := range uris {
			pterm.Println("  " + pterm.LightCyan(u))
		}
	}

	pterm.Println()
	pterm.FgGray.Println("Press Ctrl+C to stop")
}
