package fixtures

import (
	"github.com/google/uuid"

	"github.com/AntonStoeckl/snapshot-streams-go/snapstream"
	"github.com/AntonStoeckl/snapshot-streams-go/snapstream/jsonsnapshot"
)

// Book is a book copy in circulation.
type Book struct {
	BookID          string `json:"bookId"`
	ISBN            string `json:"isbn"`
	Title           string `json:"title"`
	Authors         string `json:"authors"`
	PublicationYear uint   `json:"publicationYear"`
}

// BuildBook creates a Book with a fresh ID.
func BuildBook(isbn, title, authors string, publicationYear uint) Book {
	return Book{
		BookID:          uuid.NewString(),
		ISBN:            isbn,
		Title:           title,
		Authors:         authors,
		PublicationYear: publicationYear,
	}
}

func FixtureLearningDDD() Book {
	return BuildBook("978-1-098-10013-1", "Learning Domain-Driven Design", "Vlad Khononov", 2021)
}

func FixtureDomainDrivenDesign() Book {
	return BuildBook("978-0-321-12521-7", "Domain-Driven Design", "Eric Evans", 2003)
}

func FixtureImplementingDDD() Book {
	return BuildBook("978-0-321-83457-7", "Implementing Domain-Driven Design", "Vaughn Vernon", 2013)
}

// BookSnapshot returns the snapshot of one book, keyed by its ID.
func BookSnapshot(book Book) *jsonsnapshot.Snapshot {
	snapshot, err := jsonsnapshot.FromValue(book.BookID, book)
	if err != nil {
		panic(err)
	}

	return snapshot
}

// BooksSnapshot returns the snapshot of the "books" location holding the given books in the given order.
func BooksSnapshot(books ...Book) *jsonsnapshot.Snapshot {
	ordered := snapstream.NewOrderedMap[Book]()
	for _, book := range books {
		ordered.Set(book.BookID, book)
	}

	snapshot, err := jsonsnapshot.FromValue("books", ordered)
	if err != nil {
		panic(err)
	}

	return snapshot
}
