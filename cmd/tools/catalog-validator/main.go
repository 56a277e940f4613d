// cmd/tools/catalog-validator/main.go
package main

import (
	"flag"
	"fmt"
	"os"

	"license-navigator/internal/catalog"
	"license-navigator/pkg/registry"
)

func main() {
	catalogCmd := flag.NewFlagSet("catalog", flag.ExitOnError)
	registryCmd := flag.NewFlagSet("registry", flag.ExitOnError)

	catalogPath := catalogCmd.String("path", "configs/catalog.json", "Path to catalog file")
	registryPath := registryCmd.String("path", "configs/jurisdictions.json", "Path to jurisdiction registry file")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "catalog":
		catalogCmd.Parse(os.Args[2:])
		if err := validateCatalog(*catalogPath); err != nil {
			fmt.Printf("Catalog validation failed: %v\n", err)
			os.Exit(1)
		}

	case "registry":
		registryCmd.Parse(os.Args[2:])
		if err := validateJurisdictions(*registryPath); err != nil {
			fmt.Printf("Registry validation failed: %v\n", err)
			os.Exit(1)
		}

	case "help":
		fallthrough
	default:
		help()
	}
}

func validateCatalog(path string) error {
	snapshot, err := catalog.LoadFile(path)
	if err != nil {
		return err
	}

	types := snapshot.ListTypes()
	fmt.Printf("Catalog validation passed. Version %s, %d business types, %d license documents.\n",
		snapshot.Version(), len(types), len(snapshot.LicenseDocs()))

	for _, bt := range types {
		if len(bt.Keywords) == 0 {
			fmt.Printf("warning: business type %s has no keywords, it can never be classified\n", bt.TypeID)
		}
		if len(bt.Templates) == 0 {
			fmt.Printf("warning: business type %s has no license templates\n", bt.TypeID)
		}
	}
	return nil
}

func validateJurisdictions(path string) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return err
	}

	fmt.Printf("Registry validation passed. Found %d jurisdictions, %d enabled.\n",
		len(reg.Jurisdictions), len(reg.Enabled()))
	return nil
}

func help() {
	fmt.Println(`
Usage: catalog-validator <command> [flags]

Commands:
  catalog   Validate the license catalog document
  registry  Validate the jurisdiction registry
  help      Show this help message

Examples:
  catalog-validator catalog -path configs/catalog.json
  catalog-validator registry -path configs/jurisdictions.json

Use 'catalog-validator <command> -h' for more information about a command.`)
}
