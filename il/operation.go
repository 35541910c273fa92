package il

import "fmt"

// An Operation is the payload of an Instruction.
type Operation interface {
	// VariablesRead returns every variable read by this operation.
	VariablesRead() []Variable
	// VariableWritten returns the variable written by this operation, if any.
	VariableWritten() (Variable, bool)

	fmt.Stringer

	operation()
}

// expressionVariables returns the scalars of an expression as variables.
func expressionVariables(e Expression) []Variable {
	var variables []Variable
	for _, scalar := range e.CollectScalars() {
		variables = append(variables, scalar)
	}
	return variables
}

// An Assign operation assigns the value of an expression to a scalar.
type Assign struct {
	dst Scalar
	src Expression
}

// Dst returns the scalar written by the assignment.
func (o Assign) Dst() Scalar { return o.dst }

// Src returns the expression assigned.
func (o Assign) Src() Expression { return o.src }

// VariablesRead returns the scalars of the source expression.
func (o Assign) VariablesRead() []Variable { return expressionVariables(o.src) }

// VariableWritten returns the destination scalar.
func (o Assign) VariableWritten() (Variable, bool) { return o.dst, true }

func (o Assign) String() string { return fmt.Sprintf("%s = %s", o.dst, o.src) }

func (o Assign) operation() {}

// A Store operation writes the value of an expression to memory at an index.
type Store struct {
	index Expression
	src   Expression
}

// Index returns the memory index expression.
func (o Store) Index() Expression { return o.index }

// Src returns the expression stored.
func (o Store) Src() Expression { return o.src }

// VariablesRead returns the scalars of the index and source expressions.
func (o Store) VariablesRead() []Variable {
	return append(expressionVariables(o.index), expressionVariables(o.src)...)
}

// VariableWritten returns no variable; stores write memory.
func (o Store) VariableWritten() (Variable, bool) { return nil, false }

func (o Store) String() string { return fmt.Sprintf("[%s] = %s", o.index, o.src) }

func (o Store) operation() {}

// A Load operation reads a value from memory at an index into a scalar.
type Load struct {
	dst   Scalar
	index Expression
}

// Dst returns the scalar loaded into.
func (o Load) Dst() Scalar { return o.dst }

// Index returns the memory index expression.
func (o Load) Index() Expression { return o.index }

// VariablesRead returns the scalars of the index expression.
func (o Load) VariablesRead() []Variable { return expressionVariables(o.index) }

// VariableWritten returns the destination scalar.
func (o Load) VariableWritten() (Variable, bool) { return o.dst, true }

func (o Load) String() string { return fmt.Sprintf("%s = [%s]", o.dst, o.index) }

func (o Load) operation() {}

// A Raise operation raises an event for handling outside the IL.
type Raise struct {
	expr Expression
}

// Expr returns the expression describing the event.
func (o Raise) Expr() Expression { return o.expr }

// VariablesRead returns the scalars of the event expression.
func (o Raise) VariablesRead() []Variable { return expressionVariables(o.expr) }

// VariableWritten returns no variable.
func (o Raise) VariableWritten() (Variable, bool) { return nil, false }

func (o Raise) String() string { return fmt.Sprintf("raise(%s)", o.expr) }

func (o Raise) operation() {}
