package bytecode

// Assembly is the serializable unit internal/compiler produces and
// internal/vm loads: the top-level program Chunk plus everything it and its
// nested FunctionPrototypes reference. SourceFile and ModulePath are carried
// through for the debug controller and for module-qualified error messages.
type Assembly struct {
	SourceFile string
	ModulePath string
	Main       *Chunk
}

func NewAssembly(sourceFile string) *Assembly {
	return &Assembly{SourceFile: sourceFile, Main: NewChunk()}
}
