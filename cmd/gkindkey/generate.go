package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/kindelia-network/gkind/crypto"
)

type outputGenerate struct {
	Address string `json:"address"`
}

var privateKeyFlag = &cli.StringFlag{
	Name:  "privatekey",
	Usage: "file containing a raw private key to import",
}

var commandGenerate = &cli.Command{
	Name:      "generate",
	Usage:     "generate new keyfile",
	ArgsUsage: "[ <keyfile> ]",
	Description: `
Generate a new keyfile.

If you want to import an existing private key, it can be specified by
setting --privatekey with the location of the file containing the key.
`,
	Flags: []cli.Flag{
		jsonFlag,
		privateKeyFlag,
	},
	Action: func(ctx *cli.Context) error {
		keyfilepath := ctx.Args().First()
		if keyfilepath == "" {
			keyfilepath = defaultKeyfileName
		}
		if _, err := os.Stat(keyfilepath); err == nil {
			fatalf("Keyfile already exists at %s.", keyfilepath)
		} else if !os.IsNotExist(err) {
			fatalf("Error checking if keyfile exists: %v", err)
		}

		privateKey, err := crypto.GenerateKey()
		if file := ctx.String(privateKeyFlag.Name); file != "" {
			privateKey, err = crypto.LoadECDSA(file)
		}
		if err != nil {
			fatalf("Failed to obtain private key: %v", err)
		}

		if err := crypto.SaveECDSA(keyfilepath, privateKey); err != nil {
			fatalf("Failed to write keyfile: %v", err)
		}
		addr := crypto.PubkeyToAddress(privateKey.PublicKey)

		out := outputGenerate{Address: addr.Hex()}
		if ctx.Bool(jsonFlag.Name) {
			mustPrintJSON(out)
		} else {
			fmt.Println("Address:", out.Address)
		}
		return nil
	},
}
