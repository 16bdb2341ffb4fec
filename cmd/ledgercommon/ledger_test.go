package ledgercommon

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/nfc-attendance/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContractAddress(t *testing.T) {
	embedded := common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	withAddress := &ledger.Artifact{Address: &embedded}
	withoutAddress := &ledger.Artifact{}

	addr, err := contractAddress("0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512", withAddress)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512"), addr)

	addr, err = contractAddress("", withAddress)
	require.NoError(t, err)
	assert.Equal(t, embedded, addr)

	_, err = contractAddress("", withoutAddress)
	assert.ErrorIs(t, err, ErrNoContractAddress)

	_, err = contractAddress("not-an-address", withoutAddress)
	assert.Error(t, err)
}

func TestLoadArtifactDefault(t *testing.T) {
	artifact, err := loadArtifact("")
	require.NoError(t, err)
	assert.Nil(t, artifact.Address)
	assert.Contains(t, artifact.ABI.Methods, "markAttendance")
}
