package resolver

// Names the Python runtime provides without any import. References that
// fall through every scope resolve against this set before being reported
// undefined. The list covers what realistic scripts touch; exotic builtins
// missing here surface as false positives, which is the documented
// trade-off of a best-effort analysis.
var pythonBuiltins = map[string]bool{
	"abs": true, "all": true, "any": true, "bin": true, "bool": true,
	"bytearray": true, "bytes": true, "callable": true, "chr": true,
	"classmethod": true, "complex": true, "dict": true, "dir": true,
	"divmod": true, "enumerate": true, "eval": true, "exec": true,
	"filter": true, "float": true, "format": true, "frozenset": true,
	"getattr": true, "globals": true, "hasattr": true, "hash": true,
	"hex": true, "id": true, "input": true, "int": true,
	"isinstance": true, "issubclass": true, "iter": true, "len": true,
	"list": true, "locals": true, "map": true, "max": true, "min": true,
	"next": true, "object": true, "oct": true, "open": true, "ord": true,
	"pow": true, "print": true, "property": true, "range": true,
	"repr": true, "reversed": true, "round": true, "set": true,
	"setattr": true, "slice": true, "sorted": true, "staticmethod": true,
	"str": true, "sum": true, "super": true, "tuple": true, "type": true,
	"vars": true, "zip": true,

	"ArithmeticError": true, "AssertionError": true, "AttributeError": true,
	"BaseException": true, "Exception": true, "FileNotFoundError": true,
	"IOError": true, "ImportError": true, "IndexError": true,
	"KeyError": true, "KeyboardInterrupt": true, "LookupError": true,
	"NameError": true, "NotImplementedError": true, "OSError": true,
	"OverflowError": true, "RuntimeError": true, "StopIteration": true,
	"SystemExit": true, "TypeError": true, "ValueError": true,
	"ZeroDivisionError": true,

	"__name__": true, "__file__": true, "__doc__": true,
	"NotImplemented": true, "Ellipsis": true,
}
