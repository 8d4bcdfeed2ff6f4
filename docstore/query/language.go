// Package query builds query expressions as Value trees, ready for wire
// encoding. Builders only construct the request payload; they perform no
// validation of server-side semantics.
package query

import (
	"github.com/wbrown/janus-docstore/docstore"
)

// Expr is a query expression. Expressions are plain Values: an expression
// tree is an ObjectV whose keys name the operation.
type Expr = docstore.Value

// Class returns the ref of a document class.
func Class(name string) docstore.RefV {
	return docstore.RefV{ID: name, Parent: &docstore.RefV{ID: "classes"}}
}

// Index returns the ref of an index.
func Index(name string) docstore.RefV {
	return docstore.RefV{ID: name, Parent: &docstore.RefV{ID: "indexes"}}
}

// Doc returns the ref of a document within a class.
func Doc(class docstore.RefV, id string) docstore.RefV {
	return docstore.RefV{ID: id, Parent: &class}
}

// Obj builds an object expression.
func Obj(fields map[string]Expr) Expr {
	return docstore.ObjectV(fields)
}

// Arr builds an array expression.
func Arr(elems ...Expr) Expr {
	return docstore.ArrayV(elems)
}

// Match returns the set of documents matching term under the given index.
// The set is deferred; combine with Paginate to materialize it.
func Match(index Expr, term Expr) Expr {
	return docstore.ObjectV{
		"match": term,
		"index": index,
	}
}

// Get retrieves the document identified by ref.
func Get(ref Expr) Expr {
	return docstore.ObjectV{"get": ref}
}

// Create creates a document in the given class. params carries the document
// under a "data" field.
func Create(class Expr, params Expr) Expr {
	return docstore.ObjectV{
		"create": class,
		"params": params,
	}
}

// Update merges params into the document identified by ref.
func Update(ref Expr, params Expr) Expr {
	return docstore.ObjectV{
		"update": ref,
		"params": params,
	}
}

// Delete removes the document identified by ref.
func Delete(ref Expr) Expr {
	return docstore.ObjectV{"delete": ref}
}

// PaginateOption adjusts a Paginate expression.
type PaginateOption func(docstore.ObjectV)

// Size caps the number of results per page.
func Size(n int64) PaginateOption {
	return func(expr docstore.ObjectV) {
		expr["size"] = docstore.LongV(n)
	}
}

// Paginate materializes a page of the given set.
func Paginate(set Expr, opts ...PaginateOption) Expr {
	expr := docstore.ObjectV{"paginate": set}
	for _, opt := range opts {
		opt(expr)
	}
	return expr
}
