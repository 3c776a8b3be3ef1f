package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/bridgesim/schema"
	"github.com/sarchlab/bridgesim/token"
	"github.com/sarchlab/bridgesim/wiring"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check channel descriptors against a signal schema.",
	Long: "`validate --schema types.json --channels channels.json` builds " +
		"the simulation wrapper the driver would build and reports wiring " +
		"or adapter problems before any hardware is involved.",
	Run: func(cmd *cobra.Command, _ []string) {
		w := buildWrapper(cmd)

		fmt.Printf("OK: %d channels, %d bridge-facing ports\n",
			len(w.Channels()), len(w.Ports()))
	},
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List the bridge-facing port surface of a build.",
	Run: func(cmd *cobra.Command, _ []string) {
		w := buildWrapper(cmd)

		for _, p := range w.Ports() {
			fmt.Printf("%s\t%s\t%s\t%d bits\n",
				p.Name(), p.Direction(), token.KindName(p.Kind()),
				p.Payload().WidthBits())
		}
	},
}

func init() {
	for _, c := range []*cobra.Command{validateCmd, portsCmd} {
		c.Flags().String("schema", "", "Signal schema JSON file")
		c.Flags().String("channels", "", "Channel descriptor JSON file")
		_ = c.MarkFlagRequired("channels")
		rootCmd.AddCommand(c)
	}
}

func buildWrapper(cmd *cobra.Command) *wiring.Wrapper {
	schemaPath, _ := cmd.Flags().GetString("schema")
	channelsPath, _ := cmd.Flags().GetString("channels")

	builder := wiring.MakeWrapperBuilder()

	if schemaPath != "" {
		lookup := loadSchema(schemaPath)
		builder = builder.WithLookup(lookup)
	}

	descs := loadChannels(channelsPath)
	builder = builder.WithDescriptors(descs...)

	w, err := builder.Build("top")
	if err != nil {
		log.Fatalf("Error building wrapper: %v", err)
	}

	return w
}

func loadSchema(path string) schema.MapLookup {
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("Error opening schema: %v", err)
	}
	defer f.Close()

	lookup, err := schema.Load(f)
	if err != nil {
		log.Fatalf("Error loading schema: %v", err)
	}

	return lookup
}

func loadChannels(path string) []wiring.ConnectionDescriptor {
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("Error opening channels: %v", err)
	}
	defer f.Close()

	descs, err := wiring.LoadDescriptors(f)
	if err != nil {
		log.Fatalf("Error loading channels: %v", err)
	}

	return descs
}
