package filters

// faxCode is one T.4/T.6 code word: the low n bits of bits, sent most
// significant first.
type faxCode struct {
	n    uint8
	bits uint16
}

// Terminating codes, run lengths 0 to 63 (T.4 table 2).
var whiteTermCodes = [64]faxCode{
	{8, 0x35}, {6, 0x07}, {4, 0x07}, {4, 0x08}, {4, 0x0b}, {4, 0x0c}, {4, 0x0e}, {4, 0x0f},
	{5, 0x13}, {5, 0x14}, {5, 0x07}, {5, 0x08}, {6, 0x08}, {6, 0x03}, {6, 0x34}, {6, 0x35},
	{6, 0x2a}, {6, 0x2b}, {7, 0x27}, {7, 0x0c}, {7, 0x08}, {7, 0x17}, {7, 0x03}, {7, 0x04},
	{7, 0x28}, {7, 0x2b}, {7, 0x13}, {7, 0x24}, {7, 0x18}, {8, 0x02}, {8, 0x03}, {8, 0x1a},
	{8, 0x1b}, {8, 0x12}, {8, 0x13}, {8, 0x14}, {8, 0x15}, {8, 0x16}, {8, 0x17}, {8, 0x28},
	{8, 0x29}, {8, 0x2a}, {8, 0x2b}, {8, 0x2c}, {8, 0x2d}, {8, 0x04}, {8, 0x05}, {8, 0x0a},
	{8, 0x0b}, {8, 0x52}, {8, 0x53}, {8, 0x54}, {8, 0x55}, {8, 0x24}, {8, 0x25}, {8, 0x58},
	{8, 0x59}, {8, 0x5a}, {8, 0x5b}, {8, 0x4a}, {8, 0x4b}, {8, 0x32}, {8, 0x33}, {8, 0x34},
}

var blackTermCodes = [64]faxCode{
	{10, 0x37}, {3, 0x02}, {2, 0x03}, {2, 0x02}, {3, 0x03}, {4, 0x03}, {4, 0x02}, {5, 0x03},
	{6, 0x05}, {6, 0x04}, {7, 0x04}, {7, 0x05}, {7, 0x07}, {8, 0x04}, {8, 0x07}, {9, 0x18},
	{10, 0x17}, {10, 0x18}, {10, 0x08}, {11, 0x67}, {11, 0x68}, {11, 0x6c}, {11, 0x37}, {11, 0x28},
	{11, 0x17}, {11, 0x18}, {12, 0xca}, {12, 0xcb}, {12, 0xcc}, {12, 0xcd}, {12, 0x68}, {12, 0x69},
	{12, 0x6a}, {12, 0x6b}, {12, 0xd2}, {12, 0xd3}, {12, 0xd4}, {12, 0xd5}, {12, 0xd6}, {12, 0xd7},
	{12, 0x6c}, {12, 0x6d}, {12, 0xda}, {12, 0xdb}, {12, 0x54}, {12, 0x55}, {12, 0x56}, {12, 0x57},
	{12, 0x64}, {12, 0x65}, {12, 0x52}, {12, 0x53}, {12, 0x24}, {12, 0x37}, {12, 0x38}, {12, 0x27},
	{12, 0x28}, {12, 0x58}, {12, 0x59}, {12, 0x2b}, {12, 0x2c}, {12, 0x5a}, {12, 0x66}, {12, 0x67},
}

// Makeup codes for 64, 128, ..., 1728 (T.4 table 3a). Index i is run
// length (i+1)*64.
var whiteMakeupCodes = [27]faxCode{
	{5, 0x1b}, {5, 0x12}, {6, 0x17}, {7, 0x37}, {8, 0x36}, {8, 0x37}, {8, 0x64}, {8, 0x65},
	{8, 0x68}, {8, 0x67}, {9, 0xcc}, {9, 0xcd}, {9, 0xd2}, {9, 0xd3}, {9, 0xd4}, {9, 0xd5},
	{9, 0xd6}, {9, 0xd7}, {9, 0xd8}, {9, 0xd9}, {9, 0xda}, {9, 0xdb}, {9, 0x98}, {9, 0x99},
	{9, 0x9a}, {6, 0x18}, {9, 0x9b},
}

var blackMakeupCodes = [27]faxCode{
	{10, 0x0f}, {12, 0xc8}, {12, 0xc9}, {12, 0x5b}, {12, 0x33}, {12, 0x34}, {12, 0x35}, {13, 0x6c},
	{13, 0x6d}, {13, 0x4a}, {13, 0x4b}, {13, 0x4c}, {13, 0x4d}, {13, 0x72}, {13, 0x73}, {13, 0x74},
	{13, 0x75}, {13, 0x76}, {13, 0x77}, {13, 0x52}, {13, 0x53}, {13, 0x54}, {13, 0x55}, {13, 0x5a},
	{13, 0x5b}, {13, 0x64}, {13, 0x65},
}

// Extended makeup codes for 1792 to 2560, shared by both colors (T.4
// table 3b). Index i is run length 1792+i*64.
var extMakeupCodes = [13]faxCode{
	{11, 0x08}, {11, 0x0c}, {11, 0x0d}, {12, 0x12}, {12, 0x13}, {12, 0x14}, {12, 0x15},
	{12, 0x16}, {12, 0x17}, {12, 0x1c}, {12, 0x1d}, {12, 0x1e}, {12, 0x1f},
}

const maxMakeupRun = 2560

var eolCode = faxCode{12, 0x001}

// Two-dimensional mode codes (T.4 table 4).
var (
	passCode       = faxCode{4, 0x1}
	horizontalCode = faxCode{3, 0x1}

	// verticalCodes is indexed by delta+3, VL3 through VR3.
	verticalCodes = [7]faxCode{{7, 0x02}, {6, 0x02}, {3, 0x02}, {1, 0x1}, {3, 0x3}, {6, 0x3}, {7, 0x3}}
)

// Values stored in the decoding trees besides run lengths and vertical
// deltas.
const (
	faxEOL        = -100
	faxPass       = 100
	faxHorizontal = 101
)

// makeupCode returns the makeup code for a multiple of 64 in 64..2560.
func makeupCode(white bool, run int) faxCode {
	m := run / 64
	if m >= 28 {
		return extMakeupCodes[m-28]
	}
	if white {
		return whiteMakeupCodes[m-1]
	}
	return blackMakeupCodes[m-1]
}

// faxTree is a binary decoding tree stored as a node slice. Node 0 is the
// root; a zero child index means there is no code along that branch.
type faxTree []faxNode

type faxNode struct {
	next  [2]int32
	value int32
	leaf  bool
}

func (t *faxTree) insert(c faxCode, value int) {
	if len(*t) == 0 {
		*t = append(*t, faxNode{})
	}
	n := int32(0)
	for i := int(c.n) - 1; i >= 0; i-- {
		if (*t)[n].leaf {
			panic("filters: fax code table has a prefix collision")
		}
		bit := c.bits >> uint(i) & 1
		next := (*t)[n].next[bit]
		if next == 0 {
			*t = append(*t, faxNode{})
			next = int32(len(*t) - 1)
			(*t)[n].next[bit] = next
		}
		n = next
	}
	node := &(*t)[n]
	if node.leaf || node.next != [2]int32{} {
		panic("filters: fax code table has a prefix collision")
	}
	node.leaf = true
	node.value = int32(value)
}

// The decoding trees are built once and only read afterwards, so they are
// safe for concurrent use.
var (
	whiteTree faxTree
	blackTree faxTree
	modeTree  faxTree
)

func init() {
	for run, c := range whiteTermCodes {
		whiteTree.insert(c, run)
	}
	for run, c := range blackTermCodes {
		blackTree.insert(c, run)
	}
	for i := range whiteMakeupCodes {
		whiteTree.insert(whiteMakeupCodes[i], (i+1)*64)
		blackTree.insert(blackMakeupCodes[i], (i+1)*64)
	}
	for i, c := range extMakeupCodes {
		whiteTree.insert(c, 1792+i*64)
		blackTree.insert(c, 1792+i*64)
	}
	whiteTree.insert(eolCode, faxEOL)
	blackTree.insert(eolCode, faxEOL)

	modeTree.insert(passCode, faxPass)
	modeTree.insert(horizontalCode, faxHorizontal)
	for i, c := range verticalCodes {
		modeTree.insert(c, i-3)
	}
	modeTree.insert(eolCode, faxEOL)
}
