package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/kindelia-network/gkind/core/types"
	"github.com/kindelia-network/gkind/crypto"
)

type outputSign struct {
	Kind      string `json:"kind"`
	Hash      string `json:"hash"`
	Address   string `json:"address"`
	Statement string `json:"statement"`
}

type outputVerify struct {
	Kind    string `json:"kind"`
	Hash    string `json:"hash"`
	Signed  bool   `json:"signed"`
	Address string `json:"address,omitempty"`
}

var commandSign = &cli.Command{
	Name:      "sign",
	Usage:     "sign an encoded statement",
	ArgsUsage: "<keyfile> <statement-hex>",
	Description: `
Sign a hex-encoded statement with the key in the keyfile and print the
signed encoding. An existing signature is replaced.`,
	Flags: []cli.Flag{
		jsonFlag,
	},
	Action: func(ctx *cli.Context) error {
		key, err := crypto.LoadECDSA(ctx.Args().First())
		if err != nil {
			fatalf("Failed to read the keyfile: %v", err)
		}
		stmt := decodeStatementArg(ctx.Args().Get(1))

		signed, err := types.SignStatement(stmt, key)
		if err != nil {
			fatalf("Failed to sign statement: %v", err)
		}
		addr := crypto.PubkeyToAddress(key.PublicKey)

		out := outputSign{
			Kind:      signed.Kind.String(),
			Hash:      hex.EncodeToString(signed.Hash().Bytes()),
			Address:   addr.Hex(),
			Statement: hex.EncodeToString(types.EncodeStatement(signed)),
		}
		if ctx.Bool(jsonFlag.Name) {
			mustPrintJSON(out)
			return nil
		}
		fmt.Println("Kind:     ", out.Kind)
		fmt.Println("Hash:     ", out.Hash)
		fmt.Println("Address:  ", out.Address)
		fmt.Println("Statement:", out.Statement)
		return nil
	},
}

var commandVerify = &cli.Command{
	Name:      "verify",
	Usage:     "recover the signer of an encoded statement",
	ArgsUsage: "<statement-hex>",
	Description: `
Decode a hex-encoded statement and print the address its signature
recovers to, if any.`,
	Flags: []cli.Flag{
		jsonFlag,
	},
	Action: func(ctx *cli.Context) error {
		stmt := decodeStatementArg(ctx.Args().First())

		addr, signed, err := stmt.Authority()
		if err != nil {
			fatalf("Invalid signature: %v", err)
		}
		out := outputVerify{
			Kind:   stmt.Kind.String(),
			Hash:   hex.EncodeToString(stmt.Hash().Bytes()),
			Signed: signed,
		}
		if signed {
			out.Address = addr.Hex()
		}
		if ctx.Bool(jsonFlag.Name) {
			mustPrintJSON(out)
			return nil
		}
		fmt.Println("Kind:  ", out.Kind)
		fmt.Println("Hash:  ", out.Hash)
		if signed {
			fmt.Println("Signer:", out.Address)
		} else {
			fmt.Println("Signer: none (unsigned)")
		}
		return nil
	},
}

func decodeStatementArg(arg string) *types.Statement {
	raw, err := hex.DecodeString(strings.TrimPrefix(arg, "0x"))
	if err != nil {
		fatalf("Statement argument is not hex: %v", err)
	}
	stmt, err := types.DecodeStatement(raw)
	if err != nil {
		fatalf("Failed to decode statement: %v", err)
	}
	return stmt
}
