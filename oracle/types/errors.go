package types

import (
	errorsmod "cosmossdk.io/errors"
)

// errors
var (
	ErrConfig         = errorsmod.Register(Codespace, 2, "invalid configuration")
	ErrOracleAPI      = errorsmod.Register(Codespace, 3, "oracle api request failed")
	ErrOracleResponse = errorsmod.Register(Codespace, 4, "malformed oracle response")
	ErrAssetNotFound  = errorsmod.Register(Codespace, 5, "asset not found in oracle response")
	ErrEncode         = errorsmod.Register(Codespace, 6, "failed to encode contract call")
	ErrRPC            = errorsmod.Register(Codespace, 7, "chain rpc request failed")
	ErrTxFailed       = errorsmod.Register(Codespace, 8, "transaction reverted")
	ErrReceiptTimeout = errorsmod.Register(Codespace, 9, "timed out waiting for transaction receipt")
	ErrVerify         = errorsmod.Register(Codespace, 10, "on-chain verification failed")
)

// ExitCode maps err to the process exit status. Registered errors exit with
// their code, anything else with 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	codespace, code, _ := errorsmod.ABCIInfo(err, false)
	if codespace != Codespace || code == 0 {
		return 1
	}

	return int(code)
}
