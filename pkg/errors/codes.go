package errors

import "strings"

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Category groups error codes by how the umbrella process should react.
type Category int

const (
	// CategoryNone is reported for nil errors.
	CategoryNone Category = iota
	// CategoryStructuralInput marks malformed model data.  Never recovered
	// silently.
	CategoryStructuralInput
	// CategoryInternalConsistency marks an engine bug or an unsupported model.
	// Not retry-recoverable.
	CategoryInternalConsistency
	// CategoryLookupMiss marks a name lookup on a user-facing query path.
	CategoryLookupMiss
	// CategoryInfrastructure marks I/O failures in catalog sinks and config.
	CategoryInfrastructure
)

func (c Category) String() string {
	switch c {
	case CategoryStructuralInput:
		return "structural_input"
	case CategoryInternalConsistency:
		return "internal_consistency"
	case CategoryLookupMiss:
		return "lookup_miss"
	case CategoryInfrastructure:
		return "infrastructure"
	default:
		return "none"
	}
}

// Common Error Codes
const (
	ErrCodeInternal       ErrorCode = "COMMON_001"
	ErrCodeBadRequest     ErrorCode = "COMMON_002"
	ErrCodeNotFound       ErrorCode = "COMMON_005"
	ErrCodeValidation     ErrorCode = "COMMON_010"
	ErrCodeSerialization  ErrorCode = "COMMON_011"
	ErrCodeNotImplemented ErrorCode = "COMMON_016"
	ErrCodeConfig         ErrorCode = "COMMON_020"
)

// Aliases
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeOK           = ErrorCode("OK")
	CodeUnknown      = ErrorCode("UNKNOWN")
)

// Mol Definition Error Codes
const (
	ErrCodeDuplicateMol      ErrorCode = "MOL_001"
	ErrCodeDuplicateSite     ErrorCode = "MOL_002"
	ErrCodeDuplicateShape    ErrorCode = "MOL_003"
	ErrCodeDuplicateMod      ErrorCode = "MOL_004"
	ErrCodeUnknownMol        ErrorCode = "MOL_005"
	ErrCodeUnknownSite       ErrorCode = "MOL_006"
	ErrCodeUnknownShape      ErrorCode = "MOL_007"
	ErrCodeUnknownMod        ErrorCode = "MOL_008"
	ErrCodeUnknownModSite    ErrorCode = "MOL_009"
	ErrCodeNotModifiable     ErrorCode = "MOL_010"
	ErrCodeStateMismatch     ErrorCode = "MOL_011"
	ErrCodeAlloStateConflict ErrorCode = "MOL_012"
	ErrCodeInvalidMolDef     ErrorCode = "MOL_013"
	ErrCodeUnknownParam      ErrorCode = "MOL_014"
	ErrCodeDuplicateModSite  ErrorCode = "MOL_015"
)

// Complex Graph Error Codes
const (
	ErrCodeNotSimpleGraph     ErrorCode = "PLX_001"
	ErrCodeIndexOutOfRange    ErrorCode = "PLX_002"
	ErrCodeEmptyGraph         ErrorCode = "PLX_003"
	ErrCodeNotConnected       ErrorCode = "PLX_004"
	ErrCodeParamCountMismatch ErrorCode = "PLX_005"
)

// Isomorphism Search Error Codes
const (
	ErrCodeDisconnectedPattern ErrorCode = "ISO_001"
	ErrCodeMapMismatch         ErrorCode = "ISO_002"
)

// Family Registry Error Codes
const (
	ErrCodeMissingKinetics    ErrorCode = "FAM_001"
	ErrCodeNegativePopulation ErrorCode = "FAM_002"
	ErrCodeLateOmniPlex       ErrorCode = "FAM_003"
	ErrCodeInvalidQuery       ErrorCode = "FAM_004"
	ErrCodeInvalidOverlay     ErrorCode = "FAM_005"
	ErrCodeSpeciesNotFound    ErrorCode = "FAM_006"
)

// Reaction Generator Error Codes
const (
	ErrCodeMissingRate       ErrorCode = "RXN_001"
	ErrCodeInvalidRate       ErrorCode = "RXN_002"
	ErrCodeDuplicateKinetics ErrorCode = "RXN_003"
)

// Naming Error Codes
const (
	ErrCodeNameRoundTrip  ErrorCode = "NMR_001"
	ErrCodeMalformedName  ErrorCode = "NMR_002"
	ErrCodeTooManyMols    ErrorCode = "NMR_003"
	ErrCodeBadPermutation ErrorCode = "NMR_004"
)

// Catalog Sink Error Codes
const (
	ErrCodeCatalogConnect ErrorCode = "CAT_001"
	ErrCodeCatalogWrite   ErrorCode = "CAT_002"
	ErrCodeCatalogEncode  ErrorCode = "CAT_003"
	ErrCodeCatalogClosed  ErrorCode = "CAT_004"
)

// ErrorCodeCategory maps every code to its failure category.
var ErrorCodeCategory = map[ErrorCode]Category{
	ErrCodeInternal:       CategoryInternalConsistency,
	ErrCodeBadRequest:     CategoryStructuralInput,
	ErrCodeNotFound:       CategoryLookupMiss,
	ErrCodeValidation:     CategoryStructuralInput,
	ErrCodeSerialization:  CategoryInfrastructure,
	ErrCodeNotImplemented: CategoryInternalConsistency,
	ErrCodeConfig:         CategoryInfrastructure,

	ErrCodeDuplicateMol:      CategoryStructuralInput,
	ErrCodeDuplicateSite:     CategoryStructuralInput,
	ErrCodeDuplicateShape:    CategoryStructuralInput,
	ErrCodeDuplicateMod:      CategoryStructuralInput,
	ErrCodeUnknownMol:        CategoryStructuralInput,
	ErrCodeUnknownSite:       CategoryStructuralInput,
	ErrCodeUnknownShape:      CategoryStructuralInput,
	ErrCodeUnknownMod:        CategoryStructuralInput,
	ErrCodeUnknownModSite:    CategoryStructuralInput,
	ErrCodeNotModifiable:     CategoryStructuralInput,
	ErrCodeStateMismatch:     CategoryInternalConsistency,
	ErrCodeAlloStateConflict: CategoryStructuralInput,
	ErrCodeInvalidMolDef:     CategoryStructuralInput,
	ErrCodeUnknownParam:      CategoryInternalConsistency,
	ErrCodeDuplicateModSite:  CategoryStructuralInput,

	ErrCodeNotSimpleGraph:     CategoryStructuralInput,
	ErrCodeIndexOutOfRange:    CategoryStructuralInput,
	ErrCodeEmptyGraph:         CategoryStructuralInput,
	ErrCodeNotConnected:       CategoryStructuralInput,
	ErrCodeParamCountMismatch: CategoryInternalConsistency,

	ErrCodeDisconnectedPattern: CategoryInternalConsistency,
	ErrCodeMapMismatch:         CategoryInternalConsistency,

	ErrCodeMissingKinetics:    CategoryInternalConsistency,
	ErrCodeNegativePopulation: CategoryInternalConsistency,
	ErrCodeLateOmniPlex:       CategoryStructuralInput,
	ErrCodeInvalidQuery:       CategoryStructuralInput,
	ErrCodeInvalidOverlay:     CategoryStructuralInput,
	ErrCodeSpeciesNotFound:    CategoryLookupMiss,

	ErrCodeMissingRate:       CategoryInternalConsistency,
	ErrCodeInvalidRate:       CategoryStructuralInput,
	ErrCodeDuplicateKinetics: CategoryStructuralInput,

	ErrCodeNameRoundTrip:  CategoryInternalConsistency,
	ErrCodeMalformedName:  CategoryStructuralInput,
	ErrCodeTooManyMols:    CategoryStructuralInput,
	ErrCodeBadPermutation: CategoryInternalConsistency,

	ErrCodeCatalogConnect: CategoryInfrastructure,
	ErrCodeCatalogWrite:   CategoryInfrastructure,
	ErrCodeCatalogEncode:  CategoryInfrastructure,
	ErrCodeCatalogClosed:  CategoryInfrastructure,
}

// ErrorCodeMessage holds the default message for each code.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:       "internal error",
	ErrCodeBadRequest:     "invalid parameter",
	ErrCodeNotFound:       "not found",
	ErrCodeValidation:     "validation failed",
	ErrCodeSerialization:  "serialization failed",
	ErrCodeNotImplemented: "not implemented",
	ErrCodeConfig:         "configuration load failed",

	ErrCodeDuplicateMol:      "duplicate mol name",
	ErrCodeDuplicateSite:     "duplicate binding site name",
	ErrCodeDuplicateShape:    "duplicate site shape name",
	ErrCodeDuplicateMod:      "duplicate modification name",
	ErrCodeUnknownMol:        "unknown mol",
	ErrCodeUnknownSite:       "unknown binding site",
	ErrCodeUnknownShape:      "unknown site shape",
	ErrCodeUnknownMod:        "unknown modification",
	ErrCodeUnknownModSite:    "unknown modification site",
	ErrCodeNotModifiable:     "mol has no modification sites",
	ErrCodeStateMismatch:     "mol param does not match mol type",
	ErrCodeAlloStateConflict: "conflicting allosteric state shapes",
	ErrCodeInvalidMolDef:     "invalid mol definition",
	ErrCodeUnknownParam:      "unknown mol param",
	ErrCodeDuplicateModSite:  "duplicate modification site name",

	ErrCodeNotSimpleGraph:     "complex is not a simple graph",
	ErrCodeIndexOutOfRange:    "index out of range",
	ErrCodeEmptyGraph:         "complex has no mols",
	ErrCodeNotConnected:       "complex is not connected",
	ErrCodeParamCountMismatch: "mol param count does not match mol count",

	ErrCodeDisconnectedPattern: "isomorphism search on disconnected pattern",
	ErrCodeMapMismatch:         "forward and backward maps disagree",

	ErrCodeMissingKinetics:    "no kinetics registered for binding",
	ErrCodeNegativePopulation: "species population went negative",
	ErrCodeLateOmniPlex:       "omniplex registered after expansion began",
	ErrCodeInvalidQuery:       "invalid state query",
	ErrCodeInvalidOverlay:     "invalid allosteric overlay",
	ErrCodeSpeciesNotFound:    "species not found",

	ErrCodeMissingRate:       "no rate for site shape pair",
	ErrCodeInvalidRate:       "invalid rate",
	ErrCodeDuplicateKinetics: "kinetics already declared",

	ErrCodeNameRoundTrip:  "canonical name does not decode to its source",
	ErrCodeMalformedName:  "malformed canonical name",
	ErrCodeTooManyMols:    "complex too large for exhaustive naming",
	ErrCodeBadPermutation: "invalid permutation",

	ErrCodeCatalogConnect: "catalog connection failed",
	ErrCodeCatalogWrite:   "catalog write failed",
	ErrCodeCatalogEncode:  "catalog record encoding failed",
	ErrCodeCatalogClosed:  "catalog sink closed",
}

// CategoryForCode returns the category of an ErrorCode.  Unknown codes are
// treated as internal consistency failures.
func CategoryForCode(code ErrorCode) Category {
	if code == CodeOK {
		return CategoryNone
	}
	if cat, ok := ErrorCodeCategory[code]; ok {
		return cat
	}
	return CategoryInternalConsistency
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
