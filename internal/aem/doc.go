// Package aem implements the page-framework conventions the decorators build on:
// sections and blocks in a page's <main>, page metadata, and block construction.
//
// Authored content arrives as plain markup. Every top-level div of <main> is a
// section; a div with a class inside a section is a block named after its first
// class. DecorateMain turns that markup into the wrapped structure
//
//	<div class="section">
//	  <div class="default-content-wrapper">...</div>
//	  <div class="banner-wrapper"><div class="banner block" data-block-name="banner">...</div></div>
//	</div>
//
// and LoadSections runs the decorator registered for each block.
package aem
