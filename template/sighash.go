// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package template

import (
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// SIGHASH flag bits, combined by Algorithm.SigHashByte into the single
// trailing byte of a BCH signature.
const (
	sighashAll         byte = 0x01
	sighashNone        byte = 0x02
	sighashSingle      byte = 0x03
	sighashSingleInput byte = 0x80
	sighashForkID      byte = 0x40
)

// Algorithm identifies which parts of the transaction a signature commits
// to, per spec §4.4's closed set of six identifiers.
type Algorithm string

const (
	AlgorithmAllOutputs                    Algorithm = "all_outputs"
	AlgorithmAllOutputsSingleInput          Algorithm = "all_outputs_single_input"
	AlgorithmCorrespondingOutput            Algorithm = "corresponding_output"
	AlgorithmCorrespondingOutputSingleInput Algorithm = "corresponding_output_single_input"
	AlgorithmNoOutputs                      Algorithm = "no_outputs"
	AlgorithmNoOutputsSingleInput           Algorithm = "no_outputs_single_input"
)

// ParseAlgorithm validates s against the closed set of algorithm
// identifiers.
func ParseAlgorithm(s string) (Algorithm, bool) {
	switch Algorithm(s) {
	case AlgorithmAllOutputs, AlgorithmAllOutputsSingleInput,
		AlgorithmCorrespondingOutput, AlgorithmCorrespondingOutputSingleInput,
		AlgorithmNoOutputs, AlgorithmNoOutputsSingleInput:
		return Algorithm(s), true
	default:
		return "", false
	}
}

// singleInput reports whether this algorithm signs only its own input
// (SIGHASH_ANYONECANPAY-equivalent), zeroing the outpoints/sequence hashes.
func (a Algorithm) singleInput() bool {
	switch a {
	case AlgorithmAllOutputsSingleInput, AlgorithmCorrespondingOutputSingleInput, AlgorithmNoOutputsSingleInput:
		return true
	default:
		return false
	}
}

// outputFlag returns the base ALL/NONE/SINGLE flag for this algorithm.
func (a Algorithm) outputFlag() byte {
	switch a {
	case AlgorithmAllOutputs, AlgorithmAllOutputsSingleInput:
		return sighashAll
	case AlgorithmNoOutputs, AlgorithmNoOutputsSingleInput:
		return sighashNone
	case AlgorithmCorrespondingOutput, AlgorithmCorrespondingOutputSingleInput:
		return sighashSingle
	default:
		return 0
	}
}

// SigHashByte returns the single trailing byte a BCH signature commits to,
// per spec §4.4's table: the algorithm's base flag, ORed with
// SIGHASH_ANYONECANPAY-equivalent and FORK_ID as applicable.
func (a Algorithm) SigHashByte() byte {
	b := a.outputFlag() | sighashForkID
	if a.singleInput() {
		b |= sighashSingleInput
	}
	return b
}

// doubleSHA256 hashes b with SHA-256 twice, per Bitcoin's usual digest
// discipline. chainhash.DoubleHashB is the teacher's own helper for this.
func doubleSHA256(b []byte) []byte {
	return chainhash.DoubleHashB(b)
}

// putVarint appends a Bitcoin CompactSize-encoded length to buf.
func putVarint(buf []byte, n uint64) []byte {
	switch {
	case n < 0xfd:
		return append(buf, byte(n))
	case n <= 0xffff:
		buf = append(buf, 0xfd)
		var tmp [2]byte
		binary.LittleEndian.PutUint16(tmp[:], uint16(n))
		return append(buf, tmp[:]...)
	case n <= 0xffffffff:
		buf = append(buf, 0xfe)
		var tmp [4]byte
		binary.LittleEndian.PutUint32(tmp[:], uint32(n))
		return append(buf, tmp[:]...)
	default:
		buf = append(buf, 0xff)
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], n)
		return append(buf, tmp[:]...)
	}
}

// outpointsHash, sequenceNumbersHash, and outputsHash apply the SIGHASH
// zeroing rules from spec §4.4: each returns 32 zero bytes when the
// corresponding transaction-context field is not committed to under the
// selected algorithm.
func outpointsHash(data *OperationData, alg Algorithm) []byte {
	if alg.singleInput() {
		return make([]byte, 32)
	}
	return doubleSHA256(data.TransactionOutpoints)
}

func sequenceNumbersHash(data *OperationData, alg Algorithm) []byte {
	if alg.singleInput() || alg.outputFlag() != sighashAll {
		return make([]byte, 32)
	}
	return doubleSHA256(data.TransactionSequenceNumbers)
}

func outputsHash(data *OperationData, alg Algorithm) ([]byte, error) {
	switch alg.outputFlag() {
	case sighashAll:
		return doubleSHA256(data.TransactionOutputs), nil
	case sighashSingle:
		if data.CorrespondingOutput == nil {
			return make([]byte, 32), nil
		}
		return doubleSHA256(data.CorrespondingOutput), nil
	default:
		return make([]byte, 32), nil
	}
}

// generateSigningSerializationBCH builds the signature preimage described in
// spec §4.4, byte-for-byte.
func generateSigningSerializationBCH(data *OperationData, alg Algorithm) ([]byte, error) {
	outputsDigest, err := outputsHash(data, alg)
	if err != nil {
		return nil, err
	}

	preimage := make([]byte, 0, 4+32+32+32+4+9+len(data.CoveredBytecode)+8+4+32+4+1)

	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], data.Version)
	preimage = append(preimage, u32[:]...)

	preimage = append(preimage, outpointsHash(data, alg)...)
	preimage = append(preimage, sequenceNumbersHash(data, alg)...)

	preimage = append(preimage, data.OutpointTransactionHash[:]...)

	binary.LittleEndian.PutUint32(u32[:], data.OutpointIndex)
	preimage = append(preimage, u32[:]...)

	preimage = putVarint(preimage, uint64(len(data.CoveredBytecode)))
	preimage = append(preimage, data.CoveredBytecode...)

	var u64 [8]byte
	binary.LittleEndian.PutUint64(u64[:], data.OutputValue)
	preimage = append(preimage, u64[:]...)

	binary.LittleEndian.PutUint32(u32[:], data.SequenceNumber)
	preimage = append(preimage, u32[:]...)

	preimage = append(preimage, outputsDigest...)

	binary.LittleEndian.PutUint32(u32[:], data.Locktime)
	preimage = append(preimage, u32[:]...)

	preimage = append(preimage, alg.SigHashByte())

	return preimage, nil
}

// signingSerializationComponent returns one named field of the signing
// serialization, either raw or double-SHA-256'd. Fields are read from data
// as they stand: a nil byte-slice field yields an empty component (or, for a
// *_hash component, the digest of empty input) and is not reported as an
// error. corresponding_output returns an empty slice, and
// corresponding_output_hash 32 zero bytes, when there is no corresponding
// output. Only an unknown component name is an error.
func signingSerializationComponent(name string, data *OperationData, alg Algorithm) ([]byte, error) {
	switch name {
	case "version":
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], data.Version)
		return b[:], nil
	case "transaction_outpoints":
		return data.TransactionOutpoints, nil
	case "transaction_outpoints_hash":
		return outpointsHash(data, alg), nil
	case "transaction_sequence_numbers":
		return data.TransactionSequenceNumbers, nil
	case "transaction_sequence_numbers_hash":
		return sequenceNumbersHash(data, alg), nil
	case "outpoint_transaction_hash":
		return data.OutpointTransactionHash[:], nil
	case "outpoint_index":
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], data.OutpointIndex)
		return b[:], nil
	case "covered_bytecode_length":
		return putVarint(nil, uint64(len(data.CoveredBytecode))), nil
	case "covered_bytecode":
		return data.CoveredBytecode, nil
	case "output_value":
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], data.OutputValue)
		return b[:], nil
	case "sequence_number":
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], data.SequenceNumber)
		return b[:], nil
	case "corresponding_output":
		if data.CorrespondingOutput == nil {
			return []byte{}, nil
		}
		return data.CorrespondingOutput, nil
	case "corresponding_output_hash":
		if data.CorrespondingOutput == nil {
			return make([]byte, 32), nil
		}
		return doubleSHA256(data.CorrespondingOutput), nil
	case "transaction_outputs":
		return data.TransactionOutputs, nil
	case "transaction_outputs_hash":
		return doubleSHA256(data.TransactionOutputs), nil
	case "locktime":
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], data.Locktime)
		return b[:], nil
	default:
		return nil, fmt.Errorf("unknown signing serialization component %q", name)
	}
}
