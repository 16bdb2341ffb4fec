package ledger

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Contract method and event names used by the client.
const (
	methodAdmin            = "admin"
	methodRegisterStudent  = "registerStudent"
	methodMarkAttendance   = "markAttendance"
	methodGetAttendance    = "getAttendance"
	eventStudentRegistered = "StudentRegistered"
)

//go:embed attendance.abi.json
var defaultABIJSON []byte

// ErrInvalidArtifact is returned when a contract artifact cannot be used.
var ErrInvalidArtifact = errors.New("invalid contract artifact")

// Artifact is the contract interface and, when the artifact records it, the deployed address.
type Artifact struct {
	ABI     abi.ABI
	Address *common.Address
}

// artifactFile covers Truffle build artifacts ("abi" plus "networks") and the
// Hardhat deploy output ("abi" plus "address").
type artifactFile struct {
	ABI      json.RawMessage `json:"abi"`
	Address  string          `json:"address"`
	Networks map[string]struct {
		Address string `json:"address"`
	} `json:"networks"`
}

// DefaultArtifact returns the embedded Attendance contract interface without an address.
func DefaultArtifact() (*Artifact, error) {
	return ParseArtifact(defaultABIJSON)
}

// LoadArtifact reads a contract artifact or a bare ABI from path.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read contract artifact: %w", err)
	}
	return ParseArtifact(data)
}

// ParseArtifact parses either a bare ABI array or an artifact object, and checks
// that the interface has everything the client calls.
func ParseArtifact(data []byte) (*Artifact, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrInvalidArtifact)
	}

	abiJSON := trimmed
	var address *common.Address

	if trimmed[0] == '{' {
		var file artifactFile
		if err := json.Unmarshal(trimmed, &file); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
		}
		if len(file.ABI) == 0 {
			return nil, fmt.Errorf("%w: missing abi", ErrInvalidArtifact)
		}
		abiJSON = file.ABI

		rawAddr := file.Address
		if rawAddr == "" && len(file.Networks) == 1 {
			for _, network := range file.Networks {
				rawAddr = network.Address
			}
		}
		if rawAddr != "" {
			if !common.IsHexAddress(rawAddr) {
				return nil, fmt.Errorf("%w: invalid address %q", ErrInvalidArtifact, rawAddr)
			}
			addr := common.HexToAddress(rawAddr)
			address = &addr
		}
	}

	parsed, err := abi.JSON(bytes.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}

	if err := validateABI(parsed); err != nil {
		return nil, err
	}

	return &Artifact{ABI: parsed, Address: address}, nil
}

// requiredMethods maps each method the client calls to its canonical signature.
var requiredMethods = map[string]string{
	methodRegisterStudent: "registerStudent(address,string,string)",
	methodMarkAttendance:  "markAttendance(string)",
	methodGetAttendance:   "getAttendance(string)",
}

func validateABI(parsed abi.ABI) error {
	for name, sig := range requiredMethods {
		method, ok := parsed.Methods[name]
		if !ok {
			return fmt.Errorf("%w: missing method %s", ErrInvalidArtifact, name)
		}
		if method.Sig != sig {
			return fmt.Errorf("%w: method %s has signature %s, want %s", ErrInvalidArtifact, name, method.Sig, sig)
		}
	}

	outputs := parsed.Methods[methodGetAttendance].Outputs
	if len(outputs) != 2 || outputs[0].Type.String() != "uint256[]" || outputs[1].Type.String() != "bool[]" {
		return fmt.Errorf("%w: %s must return (uint256[], bool[])", ErrInvalidArtifact, methodGetAttendance)
	}

	if admin, ok := parsed.Methods[methodAdmin]; ok {
		if len(admin.Outputs) != 1 || admin.Outputs[0].Type.T != abi.AddressTy {
			return fmt.Errorf("%w: %s must return an address", ErrInvalidArtifact, methodAdmin)
		}
	}

	event, ok := parsed.Events[eventStudentRegistered]
	if !ok {
		return fmt.Errorf("%w: missing event %s", ErrInvalidArtifact, eventStudentRegistered)
	}
	if event.Sig != "StudentRegistered(address,string,string)" {
		return fmt.Errorf("%w: event %s has signature %s", ErrInvalidArtifact, eventStudentRegistered, event.Sig)
	}
	return nil
}
